package handlers

import (
	"github.com/gin-gonic/gin"

	"estateops/internal/domain/parties"
	"estateops/internal/infrastructure/http/v1/dto"
)

// PartiesHandler serves users and companies.
type PartiesHandler struct {
	BaseHandler
	svc *parties.Service
}

func NewPartiesHandler(svc *parties.Service) *PartiesHandler {
	return &PartiesHandler{svc: svc}
}

// CreateUser handles POST /parties/users.
func (h *PartiesHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.svc.CreateUser(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "User created", dto.FromUser(user))
}

// GetUser handles GET /parties/users/:id.
func (h *PartiesHandler) GetUser(c *gin.Context) {
	userID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "User retrieved", dto.FromUser(user))
}

// ListUsers handles GET /parties/users.
func (h *PartiesHandler) ListUsers(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListUsers(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Users retrieved", result.TotalCount, dto.FromUsers(result.Items))
}

// CreateCompany handles POST /parties/companies.
func (h *PartiesHandler) CreateCompany(c *gin.Context) {
	var req dto.CreateCompanyRequest
	if !h.BindJSON(c, &req) {
		return
	}

	company, err := h.svc.CreateCompany(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Company created", dto.FromCompany(company))
}

// GetCompany handles GET /parties/companies/:id.
func (h *PartiesHandler) GetCompany(c *gin.Context) {
	companyID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	company, err := h.svc.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Company retrieved", dto.FromCompany(company))
}

// ListCompanies handles GET /parties/companies.
func (h *PartiesHandler) ListCompanies(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListCompanies(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Companies retrieved", result.TotalCount, dto.FromCompanies(result.Items))
}
