package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/ownership"
	"estateops/internal/infrastructure/http/v1/dto"
)

// OwnershipHandler serves owner and tenant assignment endpoints.
type OwnershipHandler struct {
	BaseHandler
	svc *ownership.Service
}

func NewOwnershipHandler(svc *ownership.Service) *OwnershipHandler {
	return &OwnershipHandler{svc: svc}
}

// Assign handles POST /ownership/owners.
func (h *OwnershipHandler) Assign(c *gin.Context) {
	var req dto.AssignOwnerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	nodeID, err := id.Parse(req.NodeID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid node id").WithDetail("nodeId", req.NodeID))
		return
	}
	owner, err := req.Owner.ToRef()
	if err != nil {
		h.Error(c, err)
		return
	}

	in := ownership.AssignInput{
		NodeID: nodeID,
		Owner:  owner,
		Notes:  req.Notes,
	}
	if req.StartDate != nil {
		in.StartDate = *req.StartDate
	} else {
		in.StartDate = time.Now().UTC()
	}

	row, err := h.svc.Assign(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Owner assigned", dto.FromOwner(row))
}

// BulkAssign handles POST /properties/:projectId/owners/assign. The
// assignment is all-or-nothing across the listed properties.
func (h *OwnershipHandler) BulkAssign(c *gin.Context) {
	projectID, ok := h.ParseID(c, "projectId")
	if !ok {
		return
	}
	var req dto.BulkAssignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	owner, err := req.Owner.ToRef()
	if err != nil {
		h.Error(c, err)
		return
	}

	targets := make([]ownership.BulkTarget, 0, len(req.Properties))
	for _, p := range req.Properties {
		nodeID, err := id.Parse(p.ID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid property id").WithDetail("id", p.ID))
			return
		}
		targets = append(targets, ownership.BulkTarget{
			NodeType: locations.NodeType(p.Type),
			NodeID:   nodeID,
		})
	}

	startDate := time.Now().UTC()
	if req.StartDate != nil {
		startDate = *req.StartDate
	}

	rows, err := h.svc.BulkAssign(c.Request.Context(), projectID, owner, targets, startDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Owners assigned", dto.FromOwners(rows))
}

// Revoke handles DELETE /properties/owners/:nodeId/delete. Frees the
// node for reassignment.
func (h *OwnershipHandler) Revoke(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "nodeId")
	if !ok {
		return
	}

	if err := h.svc.Revoke(c.Request.Context(), nodeID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Ownership revoked", nil)
}

// GetOwner handles GET /ownership/nodes/:nodeId/owner.
func (h *OwnershipHandler) GetOwner(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "nodeId")
	if !ok {
		return
	}

	row, err := h.svc.GetOwner(c.Request.Context(), nodeID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Owner retrieved", dto.FromOwner(row))
}

// ListByOwner handles GET /ownership/owners/:ownerType/:ownerId/properties.
func (h *OwnershipHandler) ListByOwner(c *gin.Context) {
	ownerID, ok := h.ParseID(c, "ownerId")
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}
	owner := ownership.OwnerRef{
		Type: ownership.OwnerType(c.Param("ownerType")),
		ID:   ownerID,
	}

	result, err := h.svc.ListByOwner(c.Request.Context(), owner, page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Properties retrieved", result.TotalCount, dto.FromOwners(result.Items))
}

// AssignTenant handles POST /ownership/tenants.
func (h *OwnershipHandler) AssignTenant(c *gin.Context) {
	var req dto.AssignTenantRequest
	if !h.BindJSON(c, &req) {
		return
	}
	nodeID, err := id.Parse(req.NodeID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid node id").WithDetail("nodeId", req.NodeID))
		return
	}
	tenantID, err := id.Parse(req.TenantID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid tenant id").WithDetail("tenantId", req.TenantID))
		return
	}

	row, err := h.svc.AssignTenant(c.Request.Context(), ownership.AssignTenantInput{
		NodeID:     nodeID,
		TenantID:   tenantID,
		LeaseStart: req.LeaseStart,
		LeaseEnd:   req.LeaseEnd,
		Notes:      req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Tenant assigned", dto.FromTenant(row))
}

// ReleaseTenant handles DELETE /ownership/tenants/:nodeId.
func (h *OwnershipHandler) ReleaseTenant(c *gin.Context) {
	nodeID, ok := h.ParseID(c, "nodeId")
	if !ok {
		return
	}

	if err := h.svc.ReleaseTenant(c.Request.Context(), nodeID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Tenant released", nil)
}
