package dto

import (
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain/plans"
	"estateops/internal/domain/sales"
)

// SalePairRequest is one (property, buyer) tuple of a sale.
type SalePairRequest struct {
	PropertyNodeID      string     `json:"propertyNodeId" binding:"required,uuid"`
	BuyerID             string     `json:"buyerId" binding:"required,uuid"`
	OwnershipPercentage string     `json:"ownershipPercentage" binding:"required"`
	PossessionDate      *time.Time `json:"possessionDate"`
}

// CreateSaleRequest is the single sale creation entry point.
type CreateSaleRequest struct {
	Pairs []SalePairRequest `json:"pairs" binding:"required,min=1,dive"`

	TotalPropertyPrice string `json:"totalPropertyPrice" binding:"required"`
	TotalDownPayment   string `json:"totalDownPayment"`

	PlanStartDate        time.Time `json:"planStartDate" binding:"required"`
	PlanFrequency        string    `json:"planFrequency" binding:"required"`
	PlanInstallmentCount int       `json:"planInstallmentCount" binding:"required,min=1"`
	PlanTemplateID       *string   `json:"planTemplateId"`

	AgentID               *string `json:"agentId"`
	AgentCommissionType   string  `json:"agentCommissionType"`
	AgentCommissionRate   *string `json:"agentCommissionRate"`
	AgentCommissionAmount *string `json:"agentCommissionAmount"`

	AssignedSalesPerson *string   `json:"assignedSalesPerson"`
	SaleDate            time.Time `json:"saleDate"`
	Notes               string    `json:"notes"`
}

// ToInput parses the request into the service input.
func (r CreateSaleRequest) ToInput() (sales.CreateSaleInput, error) {
	var in sales.CreateSaleInput
	var err error

	for _, p := range r.Pairs {
		pair := sales.PairInput{PossessionDate: p.PossessionDate}
		if pair.PropertyNodeID, err = id.Parse(p.PropertyNodeID); err != nil {
			return in, apperror.NewValidation("invalid property node id").WithDetail("id", p.PropertyNodeID)
		}
		if pair.BuyerID, err = id.Parse(p.BuyerID); err != nil {
			return in, apperror.NewValidation("invalid buyer id").WithDetail("id", p.BuyerID)
		}
		if pair.OwnershipPercentage, err = types.NewMoneyFromString(p.OwnershipPercentage); err != nil {
			return in, apperror.NewValidation("invalid ownership percentage").
				WithDetail("ownershipPercentage", p.OwnershipPercentage)
		}
		in.Pairs = append(in.Pairs, pair)
	}

	if in.TotalPropertyPrice, err = types.NewMoneyFromString(r.TotalPropertyPrice); err != nil {
		return in, apperror.NewValidation("invalid total property price").
			WithDetail("totalPropertyPrice", r.TotalPropertyPrice)
	}
	if r.TotalDownPayment != "" {
		if in.TotalDownPayment, err = types.NewMoneyFromString(r.TotalDownPayment); err != nil {
			return in, apperror.NewValidation("invalid total down payment").
				WithDetail("totalDownPayment", r.TotalDownPayment)
		}
	}

	in.PlanStartDate = r.PlanStartDate
	in.PlanFrequency = plans.Frequency(r.PlanFrequency)
	in.PlanInstallmentCount = r.PlanInstallmentCount
	if in.PlanTemplateID, err = parseOptionalID(r.PlanTemplateID, "planTemplateId"); err != nil {
		return in, err
	}

	if in.AgentID, err = parseOptionalID(r.AgentID, "agentId"); err != nil {
		return in, err
	}
	in.AgentCommissionType = r.AgentCommissionType
	if in.AgentCommissionRate, err = parseOptionalMoney(r.AgentCommissionRate, "agentCommissionRate"); err != nil {
		return in, err
	}
	if in.AgentCommissionAmount, err = parseOptionalMoney(r.AgentCommissionAmount, "agentCommissionAmount"); err != nil {
		return in, err
	}

	if in.AssignedSalesPerson, err = parseOptionalID(r.AssignedSalesPerson, "assignedSalesPerson"); err != nil {
		return in, err
	}
	in.SaleDate = r.SaleDate
	if in.SaleDate.IsZero() {
		in.SaleDate = time.Now().UTC()
	}
	in.Notes = r.Notes
	return in, nil
}

func parseOptionalID(s *string, field string) (*id.ID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	parsed, err := id.Parse(*s)
	if err != nil {
		return nil, apperror.NewValidation("invalid id").WithDetail(field, *s)
	}
	return &parsed, nil
}

// TransitionRequest moves a sale to its next status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// MarkPaidRequest settles one schedule row.
type MarkPaidRequest struct {
	PaidDate   *time.Time `json:"paidDate"`
	PaidAmount *string    `json:"paidAmount"`
	LateFee    *string    `json:"lateFee"`
}

// ToInput parses the request.
func (r MarkPaidRequest) ToInput(scheduleID id.ID) (sales.MarkPaidInput, error) {
	in := sales.MarkPaidInput{ScheduleID: scheduleID}
	if r.PaidDate != nil {
		in.PaidDate = *r.PaidDate
	}
	var err error
	if in.PaidAmount, err = parseOptionalMoney(r.PaidAmount, "paidAmount"); err != nil {
		return in, err
	}
	if in.LateFee, err = parseOptionalMoney(r.LateFee, "lateFee"); err != nil {
		return in, err
	}
	return in, nil
}

// UpdatePlanRequest restructures the installment terms of a sale item.
type UpdatePlanRequest struct {
	InstallmentCount int       `json:"installmentCount" binding:"required,min=1"`
	Frequency        string    `json:"frequency" binding:"required"`
	StartDate        time.Time `json:"startDate" binding:"required"`
}

// SaleResponse is the sale envelope.
type SaleResponse struct {
	ID                  id.ID  `json:"id"`
	SaleDate            string `json:"saleDate"`
	Status              string `json:"status"`
	AgentID             *id.ID `json:"agentId,omitempty"`
	AssignedSalesPerson *id.ID `json:"assignedSalesPerson,omitempty"`
	Notes               string `json:"notes,omitempty"`
}

// FromSale maps the sale envelope.
func FromSale(s *sales.PropertySale) SaleResponse {
	return SaleResponse{
		ID:                  s.ID,
		SaleDate:            DateString(s.SaleDate),
		Status:              string(s.Status),
		AgentID:             s.AgentID,
		AssignedSalesPerson: s.AssignedSalesPerson,
		Notes:               s.Notes,
	}
}

// FromSales maps a sale slice, never returning nil.
func FromSales(ss []*sales.PropertySale) []SaleResponse {
	out := make([]SaleResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, FromSale(s))
	}
	return out
}

// SaleItemResponse is one sale item with money display fields.
type SaleItemResponse struct {
	ID                    id.ID      `json:"id"`
	PropertyNodeID        id.ID      `json:"propertyNodeId"`
	BuyerID               id.ID      `json:"buyerId"`
	SalePrice             MoneyField `json:"salePrice"`
	DownPayment           MoneyField `json:"downPayment"`
	DownPaymentPercentage string     `json:"downPaymentPercentage"`
	OwnershipPercentage   string     `json:"ownershipPercentage"`
	PossessionDate        *string    `json:"possessionDate,omitempty"`
}

// FromSaleItem maps one item.
func FromSaleItem(i *sales.PropertySaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID:                    i.ID,
		PropertyNodeID:        i.PropertyNodeID,
		BuyerID:               i.BuyerID,
		SalePrice:             NewMoneyField(i.SalePrice),
		DownPayment:           NewMoneyField(i.DownPayment),
		DownPaymentPercentage: i.DownPaymentPercentage.StringFixed(2),
		OwnershipPercentage:   i.OwnershipPercentage.StringFixed(2),
		PossessionDate:        DateStringPtr(i.PossessionDate),
	}
}

// PlanResponse is one payment plan.
type PlanResponse struct {
	ID               id.ID   `json:"id"`
	SaleItemID       id.ID   `json:"saleItemId"`
	PaymentType      string  `json:"paymentType"`
	InstallmentCount *int    `json:"installmentCount,omitempty"`
	Frequency        *string `json:"frequency,omitempty"`
	StartDate        *string `json:"startDate,omitempty"`
	EndDate          *string `json:"endDate,omitempty"`
	TemplateID       *id.ID  `json:"templateId,omitempty"`
	IsCustom         bool    `json:"isCustom"`
}

// FromPlan maps one plan.
func FromPlan(p *sales.PaymentPlan) PlanResponse {
	resp := PlanResponse{
		ID:               p.ID,
		SaleItemID:       p.SaleItemID,
		PaymentType:      string(p.PaymentType),
		InstallmentCount: p.InstallmentCount,
		StartDate:        DateStringPtr(p.StartDate),
		EndDate:          DateStringPtr(p.EndDate),
		TemplateID:       p.TemplateID,
		IsCustom:         p.IsCustom,
	}
	if p.Frequency != nil {
		f := string(*p.Frequency)
		resp.Frequency = &f
	}
	return resp
}

// ScheduleResponse is one schedule row with the stored status.
type ScheduleResponse struct {
	ID            id.ID       `json:"id"`
	PaymentNumber int         `json:"paymentNumber"`
	DueDate       string      `json:"dueDate"`
	Amount        MoneyField  `json:"amount"`
	Status        string      `json:"status"`
	PaidDate      *string     `json:"paidDate,omitempty"`
	PaidAmount    *MoneyField `json:"paidAmount,omitempty"`
	LateFee       string      `json:"lateFee"`
}

// FromSchedule maps one schedule row.
func FromSchedule(s *sales.PaymentSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:            s.ID,
		PaymentNumber: s.PaymentNumber,
		DueDate:       DateString(s.DueDate),
		Amount:        NewMoneyField(s.Amount),
		Status:        string(s.Status),
		PaidDate:      DateStringPtr(s.PaidDate),
		PaidAmount:    NewMoneyFieldPtr(s.PaidAmount),
		LateFee:       s.LateFee.StringFixed(2),
	}
}

// SaleItemDetailResponse bundles item, plan and schedules.
type SaleItemDetailResponse struct {
	Item      SaleItemResponse   `json:"item"`
	Plan      *PlanResponse      `json:"plan,omitempty"`
	Schedules []ScheduleResponse `json:"schedules"`
}

// SaleDetailResponse is the full sale aggregate.
type SaleDetailResponse struct {
	Sale  SaleResponse             `json:"sale"`
	Items []SaleItemDetailResponse `json:"items"`
}

// FromSaleDetail maps the aggregate.
func FromSaleDetail(d *sales.SaleDetail) SaleDetailResponse {
	resp := SaleDetailResponse{
		Sale:  FromSale(d.Sale),
		Items: make([]SaleItemDetailResponse, 0, len(d.Items)),
	}
	for _, it := range d.Items {
		item := SaleItemDetailResponse{
			Item:      FromSaleItem(it.Item),
			Schedules: make([]ScheduleResponse, 0, len(it.Schedules)),
		}
		if it.Plan != nil {
			p := FromPlan(it.Plan)
			item.Plan = &p
		}
		for _, sch := range it.Schedules {
			item.Schedules = append(item.Schedules, FromSchedule(sch))
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

// InstallmentResponse is one schedule row with its read-time status.
type InstallmentResponse struct {
	ScheduleResponse
	DerivedStatus string `json:"derivedStatus"`
	DaysOverdue   int    `json:"daysOverdue"`
}

// FromInstallments maps the derived rows, never returning nil.
func FromInstallments(rows []*sales.InstallmentRow) []InstallmentResponse {
	out := make([]InstallmentResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, InstallmentResponse{
			ScheduleResponse: FromSchedule(r.PaymentSchedule),
			DerivedStatus:    string(r.DerivedStatus),
			DaysOverdue:      r.DaysOverdue,
		})
	}
	return out
}

// StatsResponse is the dashboard KPI block.
type StatsResponse struct {
	TotalSalesValue     MoneyField `json:"totalSalesValue"`
	ActivePaymentPlans  int64      `json:"activePaymentPlans"`
	OutstandingPayments MoneyField `json:"outstandingPayments"`
	OverdueCount        int64      `json:"overdueCount"`
	UpcomingCount       int64      `json:"upcomingCount"`
}

// FromStats maps the KPI block.
func FromStats(s *sales.Stats) StatsResponse {
	return StatsResponse{
		TotalSalesValue:     NewMoneyField(s.TotalSalesValue),
		ActivePaymentPlans:  s.ActivePaymentPlans,
		OutstandingPayments: NewMoneyField(s.OutstandingPayments),
		OverdueCount:        s.OverdueCount,
		UpcomingCount:       s.UpcomingCount,
	}
}

// MonthPointResponse is one month of the expected-vs-collected chart.
type MonthPointResponse struct {
	Month     string     `json:"month"`
	Expected  MoneyField `json:"expected"`
	Collected MoneyField `json:"collected"`
}

// FromMonthPoints maps the chart series, never returning nil.
func FromMonthPoints(points []*sales.MonthPoint) []MonthPointResponse {
	out := make([]MonthPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, MonthPointResponse{
			Month:     p.Month,
			Expected:  NewMoneyField(p.Expected),
			Collected: NewMoneyField(p.Collected),
		})
	}
	return out
}
