package handlers

import (
	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/sales"
	"estateops/internal/infrastructure/http/v1/dto"
)

// LocationsHandler serves the property hierarchy endpoints.
type LocationsHandler struct {
	BaseHandler
	svc      *locations.Service
	salesSvc *sales.Service
}

func NewLocationsHandler(svc *locations.Service, salesSvc *sales.Service) *LocationsHandler {
	return &LocationsHandler{svc: svc, salesSvc: salesSvc}
}

// CreateProject handles POST /locations/projects.
func (h *LocationsHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	node, err := h.svc.CreateProject(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Project created", dto.FromNode(node))
}

// ListProjects handles GET /locations/projects.
func (h *LocationsHandler) ListProjects(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListProjects(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Projects retrieved", result.TotalCount, dto.FromNodes(result.Items))
}

// CreateChild handles POST /locations/nodes.
func (h *LocationsHandler) CreateChild(c *gin.Context) {
	var req dto.CreateChildRequest
	if !h.BindJSON(c, &req) {
		return
	}
	parentID, err := id.Parse(req.ParentID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid parent id").WithDetail("parentId", req.ParentID))
		return
	}

	node, err := h.svc.CreateChild(c.Request.Context(), req.ToInput(parentID))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Node created", dto.FromNode(node))
}

// GetNode handles GET /locations/nodes/:id.
func (h *LocationsHandler) GetNode(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	node, err := h.svc.GetNode(c.Request.Context(), nodeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Node retrieved", dto.FromNode(node))
}

// DeleteNode handles DELETE /locations/nodes/:id. Nodes referenced by
// sales cannot be removed.
func (h *LocationsHandler) DeleteNode(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.salesSvc.CanDeleteNode(c.Request.Context(), nodeID); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.svc.DeleteNode(c.Request.Context(), nodeID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Node deleted", nil)
}

// Children handles GET /locations/nodes/:id/children.
func (h *LocationsHandler) Children(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	nodes, err := h.svc.Children(c.Request.Context(), nodeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Children retrieved", int64(len(nodes)), dto.FromNodes(nodes))
}

// Subtree handles GET /locations/nodes/:id/subtree.
func (h *LocationsHandler) Subtree(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	nodes, err := h.svc.Subtree(c.Request.Context(), nodeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Subtree retrieved", int64(len(nodes)), dto.FromNodes(nodes))
}

// Breadcrumb handles GET /locations/nodes/:id/breadcrumb.
func (h *LocationsHandler) Breadcrumb(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	nodes, err := h.svc.Breadcrumb(c.Request.Context(), nodeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Breadcrumb retrieved", int64(len(nodes)), dto.FromNodes(nodes))
}

// AddFloors handles POST /locations/nodes/:id/floors.
func (h *LocationsHandler) AddFloors(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AddFloorsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	floors, err := h.svc.AddFloors(c.Request.Context(), nodeID, req.Count)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Floors added", dto.FromNodes(floors))
}

// AdjustFloors handles PUT /locations/nodes/:id/floors.
func (h *LocationsHandler) AdjustFloors(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustFloorsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.svc.AdjustFloorCount(c.Request.Context(), nodeID, req.FloorCount); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Floor count adjusted", gin.H{"floorCount": req.FloorCount})
}

// GetUnitDetail handles GET /locations/units/:id.
func (h *LocationsHandler) GetUnitDetail(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetUnitDetail(c.Request.Context(), nodeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Unit retrieved", dto.FromUnitDetail(detail))
}

// UpdateUnitStatus handles PUT /locations/units/:id/status.
func (h *LocationsHandler) UpdateUnitStatus(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateUnitStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.svc.UpdateUnitStatus(c.Request.Context(), nodeID, locations.UnitStatus(req.Status)); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Unit status updated", gin.H{"status": req.Status})
}
