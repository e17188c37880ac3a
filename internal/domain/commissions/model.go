// Package commissions keeps the agent commission ledger and the
// down-payment tracking derived from sale items.
package commissions

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
)

// CommissionType discriminates percentage and fixed commissions.
type CommissionType string

const (
	TypePercent CommissionType = "%"
	TypeFixed   CommissionType = "fixed"
)

// CommissionStatus is the ledger lifecycle.
type CommissionStatus string

const (
	StatusPending   CommissionStatus = "pending"
	StatusApproved  CommissionStatus = "approved"
	StatusPaid      CommissionStatus = "paid"
	StatusCancelled CommissionStatus = "cancelled"
)

// commissionTransitions: pending → approved → paid; cancellation is
// allowed until the commission is paid. paid and cancelled are terminal.
var commissionTransitions = map[CommissionStatus][]CommissionStatus{
	StatusPending:  {StatusApproved, StatusCancelled},
	StatusApproved: {StatusPaid, StatusCancelled},
}

// CanTransitionTo reports whether the status may move to next.
func (s CommissionStatus) CanTransitionTo(next CommissionStatus) bool {
	for _, t := range commissionTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// SaleCommission is one (sale, agent) ledger row.
type SaleCommission struct {
	entity.Base

	SaleID           id.ID            `db:"sale_id" json:"saleId"`
	AgentID          id.ID            `db:"agent_id" json:"agentId"`
	CommissionType   CommissionType   `db:"commission_type" json:"commissionType"`
	CommissionRate   *types.Money     `db:"commission_rate" json:"commissionRate,omitempty"`
	CommissionAmount types.Money      `db:"commission_amount" json:"commissionAmount"`
	Status           CommissionStatus `db:"status" json:"status"`
	PaidDate         *time.Time       `db:"paid_date" json:"paidDate,omitempty"`
	PaidAmount       *types.Money     `db:"paid_amount" json:"paidAmount,omitempty"`
	Notes            string           `db:"notes" json:"notes,omitempty"`
}

// Validate implements entity.Validatable.
func (c *SaleCommission) Validate(ctx context.Context) error {
	switch c.CommissionType {
	case TypePercent:
		if c.CommissionRate == nil ||
			c.CommissionRate.IsNegative() ||
			c.CommissionRate.GreaterThan(types.Hundred) {
			return apperror.NewValidation("commission rate must be between 0 and 100")
		}
	case TypeFixed:
		if c.CommissionRate != nil {
			return apperror.NewValidation("fixed commissions must not carry a rate")
		}
		if !c.CommissionAmount.IsPositive() {
			return apperror.NewValidation("commission amount must be positive")
		}
	default:
		return apperror.NewValidation("commission type must be % or fixed").
			WithDetail("commission_type", string(c.CommissionType))
	}
	if c.CommissionAmount.IsNegative() {
		return apperror.NewValidation("commission amount must not be negative")
	}
	return nil
}
