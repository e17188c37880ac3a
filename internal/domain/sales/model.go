// Package sales implements the sale transaction engine: multi-buyer,
// multi-property sales with per-owner payment plans and installment
// schedules, plus the derived schedule-status evaluator.
package sales

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/timex"
	"estateops/internal/core/types"
	"estateops/internal/domain/plans"
)

// SaleStatus is the sale envelope lifecycle.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleActive    SaleStatus = "active"
	SaleCompleted SaleStatus = "completed"
	SaleCancelled SaleStatus = "cancelled"
	SaleDefaulted SaleStatus = "defaulted"
)

// saleTransitions is the monotone transition table; completed, cancelled
// and defaulted are terminal.
var saleTransitions = map[SaleStatus][]SaleStatus{
	SalePending: {SaleActive, SaleCancelled},
	SaleActive:  {SaleCompleted, SaleCancelled, SaleDefaulted},
}

// CanTransitionTo reports whether the status may move to next.
func (s SaleStatus) CanTransitionTo(next SaleStatus) bool {
	for _, t := range saleTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Valid reports whether the status is known.
func (s SaleStatus) Valid() bool {
	switch s {
	case SalePending, SaleActive, SaleCompleted, SaleCancelled, SaleDefaulted:
		return true
	}
	return false
}

// PropertySale is the envelope for one transactional sale.
type PropertySale struct {
	entity.Base

	SaleDate            time.Time  `db:"sale_date" json:"saleDate"`
	Status              SaleStatus `db:"status" json:"status"`
	AgentID             *id.ID     `db:"agent_id" json:"agentId,omitempty"`
	AssignedSalesPerson *id.ID     `db:"assigned_sales_person" json:"assignedSalesPerson,omitempty"`
	Notes               string     `db:"notes" json:"notes,omitempty"`
}

// PropertySaleItem is one (sale, property, buyer) tuple with its share of
// the sale.
type PropertySaleItem struct {
	entity.Base

	SaleID         id.ID       `db:"sale_id" json:"saleId"`
	PropertyNodeID id.ID       `db:"property_node_id" json:"propertyNodeId"`
	BuyerID        id.ID       `db:"buyer_id" json:"buyerId"`
	SalePrice      types.Money `db:"sale_price" json:"salePrice"`
	DownPayment    types.Money `db:"down_payment" json:"downPayment"`

	// DownPaymentPercentage is derived: down_payment / sale_price × 100.
	DownPaymentPercentage types.Money `db:"down_payment_percentage" json:"downPaymentPercentage"`

	OwnershipPercentage types.Money `db:"ownership_percentage" json:"ownershipPercentage"`
	PossessionDate      *time.Time  `db:"possession_date" json:"possessionDate,omitempty"`
}

// Validate implements entity.Validatable.
func (i *PropertySaleItem) Validate(ctx context.Context) error {
	if !i.OwnershipPercentage.IsPositive() || i.OwnershipPercentage.GreaterThan(types.Hundred) {
		return apperror.NewValidation("ownership percentage must be in (0, 100]")
	}
	if i.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price must not be negative")
	}
	if i.DownPayment.IsNegative() || i.DownPayment.GreaterThan(i.SalePrice) {
		return apperror.NewValidation("down payment must be between 0 and the sale price")
	}
	derived := types.RatioPercent(i.DownPayment, i.SalePrice)
	if !types.WithinCent(derived, i.DownPaymentPercentage) {
		return apperror.NewValidation("down payment percentage does not match the amounts")
	}
	return nil
}

// PaymentType distinguishes a one-off payment from an installment plan.
type PaymentType string

const (
	PaymentFull         PaymentType = "full"
	PaymentInstallments PaymentType = "installments"
)

// PaymentPlan is the per-sale-item installment contract.
type PaymentPlan struct {
	entity.Base

	SaleItemID       id.ID           `db:"sale_item_id" json:"saleItemId"`
	PaymentType      PaymentType     `db:"payment_type" json:"paymentType"`
	InstallmentCount *int            `db:"installment_count" json:"installmentCount,omitempty"`
	Frequency        *plans.Frequency `db:"frequency" json:"frequency,omitempty"`
	StartDate        *time.Time      `db:"start_date" json:"startDate,omitempty"`
	EndDate          *time.Time      `db:"end_date" json:"endDate,omitempty"`
	TemplateID       *id.ID          `db:"template_id" json:"templateId,omitempty"`
	IsCustom         bool            `db:"is_custom" json:"isCustom"`
}

// Validate implements entity.Validatable.
func (p *PaymentPlan) Validate(ctx context.Context) error {
	if p.PaymentType != PaymentFull && p.PaymentType != PaymentInstallments {
		return apperror.NewValidation("unknown payment type").WithDetail("paymentType", string(p.PaymentType))
	}
	if p.PaymentType != PaymentInstallments {
		return nil
	}
	if p.InstallmentCount == nil || *p.InstallmentCount < 1 {
		return apperror.NewValidation("installment count must be at least 1")
	}
	if p.Frequency == nil || !p.Frequency.Valid() {
		return apperror.NewValidation("frequency is required for installment plans")
	}
	if *p.InstallmentCount > p.Frequency.MaxPeriods() {
		return apperror.NewValidation("installment count exceeds the cadence limit").
			WithDetail("frequency", string(*p.Frequency)).
			WithDetail("max", p.Frequency.MaxPeriods())
	}
	if p.StartDate == nil {
		return apperror.NewValidation("start date is required for installment plans")
	}
	return nil
}

// ComputeEndDate derives end_date = start + count × period(frequency).
func (p *PaymentPlan) ComputeEndDate() *time.Time {
	if p.PaymentType != PaymentInstallments || p.StartDate == nil || p.InstallmentCount == nil || p.Frequency == nil {
		return nil
	}
	end := timex.AddMonthsClamped(*p.StartDate, *p.InstallmentCount*p.Frequency.PeriodMonths())
	return &end
}

// ScheduleStatus is the stored installment state. Overdue is never
// stored; it is derived from pending plus the clock at read time.
type ScheduleStatus string

const (
	SchedulePending   ScheduleStatus = "pending"
	SchedulePaid      ScheduleStatus = "paid"
	ScheduleCancelled ScheduleStatus = "cancelled"
)

// PaymentSchedule is one installment row of a plan, 1-indexed by
// payment_number.
type PaymentSchedule struct {
	entity.Base

	PlanID        id.ID          `db:"plan_id" json:"planId"`
	PaymentNumber int            `db:"payment_number" json:"paymentNumber"`
	DueDate       time.Time      `db:"due_date" json:"dueDate"`
	Amount        types.Money    `db:"amount" json:"amount"`
	Status        ScheduleStatus `db:"status" json:"status"`
	PaidDate      *time.Time     `db:"paid_date" json:"paidDate,omitempty"`
	PaidAmount    *types.Money   `db:"paid_amount" json:"paidAmount,omitempty"`
	LateFee       types.Money    `db:"late_fee" json:"lateFee"`
}

// Validate implements entity.Validatable.
func (s *PaymentSchedule) Validate(ctx context.Context) error {
	if s.PaymentNumber < 1 {
		return apperror.NewValidation("payment number must be positive")
	}
	if !s.Amount.IsPositive() {
		return apperror.NewValidation("installment amount must be positive")
	}
	return nil
}

// DerivedStatus is the read-time view of a schedule row: pending rows
// past their due date surface as overdue.
type DerivedStatus string

const (
	DerivedPending   DerivedStatus = "pending"
	DerivedPaid      DerivedStatus = "paid"
	DerivedOverdue   DerivedStatus = "overdue"
	DerivedCancelled DerivedStatus = "cancelled"
)

// DeriveStatus evaluates the row against today.
func (s *PaymentSchedule) DeriveStatus(today time.Time) DerivedStatus {
	switch s.Status {
	case SchedulePaid:
		return DerivedPaid
	case ScheduleCancelled:
		return DerivedCancelled
	}
	if timex.DateOnly(s.DueDate).Before(timex.DateOnly(today)) {
		return DerivedOverdue
	}
	return DerivedPending
}

// DaysOverdue returns how many whole days past due a pending row is, zero
// otherwise.
func (s *PaymentSchedule) DaysOverdue(today time.Time) int {
	if s.DeriveStatus(today) != DerivedOverdue {
		return 0
	}
	return int(timex.DateOnly(today).Sub(timex.DateOnly(s.DueDate)).Hours() / 24)
}

// InUpcomingWindow reports whether a pending row is due within d days
// from today, inclusive on both ends.
func (s *PaymentSchedule) InUpcomingWindow(today time.Time, d int) bool {
	if s.Status != SchedulePending {
		return false
	}
	due := timex.DateOnly(s.DueDate)
	from := timex.DateOnly(today)
	to := from.AddDate(0, 0, d)
	return !due.Before(from) && !due.After(to)
}
