package handlers

import (
	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/core/types"
	"estateops/internal/domain/plans"
	"estateops/internal/infrastructure/http/v1/dto"
)

// PlansHandler serves the payment plan template catalog.
type PlansHandler struct {
	BaseHandler
	svc *plans.Service
}

func NewPlansHandler(svc *plans.Service) *PlansHandler {
	return &PlansHandler{svc: svc}
}

// Create handles POST /payment-plans/templates.
func (h *PlansHandler) Create(c *gin.Context) {
	var req dto.TemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	tmpl, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Template created", dto.FromTemplate(tmpl, nil))
}

// Update handles PUT /payment-plans/templates/:id.
func (h *PlansHandler) Update(c *gin.Context) {
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.TemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	tmpl, err := h.svc.Update(c.Request.Context(), templateID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Template updated", dto.FromTemplate(tmpl, nil))
}

// SetActive handles PUT /payment-plans/templates/:id/active.
func (h *PlansHandler) SetActive(c *gin.Context) {
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.svc.SetActive(c.Request.Context(), templateID, *req.Active); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Template updated", gin.H{"active": *req.Active})
}

// Get handles GET /payment-plans/templates/:id.
func (h *PlansHandler) Get(c *gin.Context) {
	templateID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	tmpl, err := h.svc.Get(c.Request.Context(), templateID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Template retrieved", dto.FromTemplate(tmpl, nil))
}

// List handles GET /payment-plans/templates.
func (h *PlansHandler) ListTemplates(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.List(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Templates retrieved", result.TotalCount, dto.FromTemplates(result.Items, nil))
}

// Wizard handles GET /payment-plans/wizard. With a price query parameter every
// returned template carries its computed installment amount.
func (h *PlansHandler) Wizard(c *gin.Context) {
	var price *types.Money
	if raw := c.Query("price"); raw != "" {
		parsed, err := types.NewMoneyFromString(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid price").WithDetail("price", raw))
			return
		}
		price = &parsed
	}

	templates, err := h.svc.ListForWizard(c.Request.Context(), price, c.Query("category"))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Templates retrieved", int64(len(templates)), dto.FromTemplates(templates, price))
}
