package handlers

import (
	"github.com/gin-gonic/gin"

	"estateops/internal/domain/commissions"
	"estateops/internal/infrastructure/http/v1/dto"
)

// CommissionsHandler serves the agent commission ledger.
type CommissionsHandler struct {
	BaseHandler
	svc *commissions.Service
}

func NewCommissionsHandler(svc *commissions.Service) *CommissionsHandler {
	return &CommissionsHandler{svc: svc}
}

// Get handles GET /commissions/:id.
func (h *CommissionsHandler) Get(c *gin.Context) {
	commissionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	row, err := h.svc.Get(c.Request.Context(), commissionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Commission retrieved", dto.FromCommission(row))
}

// GetBySale handles GET /commissions/sales/:saleId.
func (h *CommissionsHandler) GetBySale(c *gin.Context) {
	saleID, ok := h.ParseID(c, "saleId")
	if !ok {
		return
	}

	row, err := h.svc.GetBySale(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Commission retrieved", dto.FromCommission(row))
}

// List handles GET /commissions.
func (h *CommissionsHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.List(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Commissions retrieved", result.TotalCount, dto.FromCommissions(result.Items))
}

// ListByAgent handles GET /commissions/agents/:agentId.
func (h *CommissionsHandler) ListByAgent(c *gin.Context) {
	agentID, ok := h.ParseID(c, "agentId")
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListByAgent(c.Request.Context(), agentID, page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Commissions retrieved", result.TotalCount, dto.FromCommissions(result.Items))
}

// Approve handles POST /commissions/:id/approve.
func (h *CommissionsHandler) Approve(c *gin.Context) {
	commissionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	row, err := h.svc.Approve(c.Request.Context(), commissionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Commission approved", dto.FromCommission(row))
}

// Cancel handles POST /commissions/:id/cancel.
func (h *CommissionsHandler) Cancel(c *gin.Context) {
	commissionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	row, err := h.svc.Cancel(c.Request.Context(), commissionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Commission cancelled", dto.FromCommission(row))
}

// Pay handles POST /commissions/:id/pay.
func (h *CommissionsHandler) Pay(c *gin.Context) {
	commissionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PayCommissionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(commissionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	row, err := h.svc.Pay(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Commission paid", dto.FromCommission(row))
}

// Recompute handles POST /commissions/sales/:saleId/recompute.
func (h *CommissionsHandler) Recompute(c *gin.Context) {
	saleID, ok := h.ParseID(c, "saleId")
	if !ok {
		return
	}

	row, err := h.svc.Recompute(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Commission recomputed", dto.FromCommission(row))
}

// DownPayments handles GET /commissions/sales/:saleId/down-payments.
func (h *CommissionsHandler) DownPayments(c *gin.Context) {
	saleID, ok := h.ParseID(c, "saleId")
	if !ok {
		return
	}

	summary, err := h.svc.DownPayments(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Down payment summary retrieved", dto.FromDownPaymentSummary(summary))
}
