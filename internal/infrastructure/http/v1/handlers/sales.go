package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/domain/plans"
	"estateops/internal/domain/sales"
	"estateops/internal/infrastructure/http/v1/dto"
)

// SalesHandler serves sale creation, lifecycle and payment endpoints.
type SalesHandler struct {
	BaseHandler
	svc       *sales.Service
	evaluator *sales.Evaluator
}

func NewSalesHandler(svc *sales.Service, evaluator *sales.Evaluator) *SalesHandler {
	return &SalesHandler{svc: svc, evaluator: evaluator}
}

// Create handles POST /sales/property-sales/create.
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	detail, err := h.svc.CreateSale(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, "Sale created", dto.FromSaleDetail(detail))
}

// Get handles GET /sales/property-sales/:id.
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.svc.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Sale retrieved", dto.FromSaleDetail(detail))
}

// List handles GET /sales/property-sales.
func (h *SalesHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListSales(c.Request.Context(), page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Sales retrieved", result.TotalCount, dto.FromSales(result.Items))
}

// Transition handles PUT /sales/property-sales/:id/status.
func (h *SalesHandler) Transition(c *gin.Context) {
	saleID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.svc.TransitionStatus(c.Request.Context(), saleID, sales.SaleStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Sale status updated", dto.FromSale(sale))
}

// Installments handles GET /sales/installments/:saleItemId. Rows carry
// the read-time derived status alongside the stored one.
func (h *SalesHandler) Installments(c *gin.Context) {
	saleItemID, ok := h.ParseID(c, "saleItemId")
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if !h.BindQuery(c, &page) {
		return
	}

	result, err := h.svc.ListInstallments(c.Request.Context(), saleItemID, page.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Installments retrieved", result.TotalCount, dto.FromInstallments(result.Items))
}

// MarkPaid handles POST /sales/schedules/:scheduleId/pay.
func (h *SalesHandler) MarkPaid(c *gin.Context) {
	scheduleID, ok := h.ParseID(c, "scheduleId")
	if !ok {
		return
	}
	var req dto.MarkPaidRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(scheduleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	schedule, err := h.svc.MarkPaid(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Payment recorded", dto.FromSchedule(schedule))
}

// UpdatePlan handles PUT /sales/items/:saleItemId/plan.
func (h *SalesHandler) UpdatePlan(c *gin.Context) {
	saleItemID, ok := h.ParseID(c, "saleItemId")
	if !ok {
		return
	}
	var req dto.UpdatePlanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	plan, err := h.svc.UpdatePlan(c.Request.Context(), sales.UpdatePlanInput{
		SaleItemID:       saleItemID,
		InstallmentCount: req.InstallmentCount,
		Frequency:        plans.Frequency(req.Frequency),
		StartDate:        req.StartDate,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Plan updated", dto.FromPlan(plan))
}

// Stats handles GET /sales/stats.
func (h *SalesHandler) Stats(c *gin.Context) {
	stats, err := h.evaluator.Stats(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Stats retrieved", dto.FromStats(stats))
}

// Chart handles GET /sales/chart. Defaults to the trailing twelve
// months when no range is given.
func (h *SalesHandler) Chart(c *gin.Context) {
	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	points, err := h.evaluator.MonthlyChart(c.Request.Context(), from, to, time.UTC)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.BaseHandler.List(c, "Chart retrieved", int64(len(points)), dto.FromMonthPoints(points))
}

// CollectionRate handles GET /sales/collection-rate.
func (h *SalesHandler) CollectionRate(c *gin.Context) {
	from, to, ok := h.parseRange(c)
	if !ok {
		return
	}

	rate, err := h.evaluator.CollectionRate(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Collection rate retrieved", gin.H{
		"from": dto.DateString(from),
		"to":   dto.DateString(to),
		"rate": rate.StringFixed(2),
	})
}

func (h *SalesHandler) parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(-1, 0, 0)
	to := now

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from date").WithDetail("from", raw))
			return from, to, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to date").WithDetail("to", raw))
			return from, to, false
		}
		to = parsed
	}
	if !to.After(from) {
		h.Error(c, apperror.NewValidation("date range is empty"))
		return from, to, false
	}
	return from, to, true
}
