// Package plans holds the reusable payment-plan template catalog.
package plans

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/types"
)

// Frequency is the installment cadence.
type Frequency string

const (
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	SemiAnnual Frequency = "semi_annual"
	Annual     Frequency = "annual"
)

// PeriodMonths returns the calendar months covered by one period.
func (f Frequency) PeriodMonths() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case SemiAnnual:
		return 6
	case Annual:
		return 12
	}
	return 0
}

// MaxPeriods caps the installment count per cadence; every cadence tops
// out at ten years.
func (f Frequency) MaxPeriods() int {
	switch f {
	case Monthly:
		return 120
	case Quarterly:
		return 40
	case SemiAnnual:
		return 20
	case Annual:
		return 10
	}
	return 0
}

// Valid reports whether the frequency is a known cadence.
func (f Frequency) Valid() bool {
	return f.PeriodMonths() > 0
}

// Difficulty is a coarse affordability label shown in the plan wizard.
type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyModerate   Difficulty = "moderate"
	DifficultyAggressive Difficulty = "aggressive"
)

// PaymentPlanTemplate is a reusable (periods, frequency, deposit%) recipe.
// Templates are immutable once a plan references them; catalog edits never
// rewrite historical plans.
type PaymentPlanTemplate struct {
	entity.Base

	Name              string      `db:"name" json:"name"`
	Category          string      `db:"category" json:"category"`
	Periods           int         `db:"periods" json:"periods"`
	Frequency         Frequency   `db:"frequency" json:"frequency"`
	DepositPercentage types.Money `db:"deposit_percentage" json:"depositPercentage"`
	Difficulty        Difficulty  `db:"difficulty" json:"difficulty"`
	IsFeatured        bool        `db:"is_featured" json:"isFeatured"`
	SortOrder         int         `db:"sort_order" json:"sortOrder"`
	UsageCount        int         `db:"usage_count" json:"usageCount"`
	LastUsed          *time.Time  `db:"last_used" json:"lastUsed,omitempty"`
	IsActive          bool        `db:"is_active" json:"isActive"`

	// Optional price band the template is recommended for.
	MinPropertyValue *types.Money `db:"min_property_value" json:"minPropertyValue,omitempty"`
	MaxPropertyValue *types.Money `db:"max_property_value" json:"maxPropertyValue,omitempty"`
}

// Validate implements entity.Validatable.
func (t *PaymentPlanTemplate) Validate(ctx context.Context) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if !t.Frequency.Valid() {
		return apperror.NewValidation("unknown frequency").WithDetail("frequency", string(t.Frequency))
	}
	if t.Periods < 1 {
		return apperror.NewValidation("periods must be at least 1")
	}
	if max := t.Frequency.MaxPeriods(); t.Periods > max {
		return apperror.NewValidation("periods exceed the cadence limit").
			WithDetail("frequency", string(t.Frequency)).
			WithDetail("max", max)
	}
	if t.DepositPercentage.IsNegative() || t.DepositPercentage.GreaterThan(types.Hundred) {
		return apperror.NewValidation("deposit percentage must be between 0 and 100")
	}
	if t.MinPropertyValue != nil && t.MaxPropertyValue != nil &&
		t.MinPropertyValue.GreaterThan(*t.MaxPropertyValue) {
		return apperror.NewValidation("minimum property value exceeds the maximum")
	}
	return nil
}

// InstallmentAmount computes the per-period installment for a property
// price: the financed remainder after the deposit, divided evenly.
func (t *PaymentPlanTemplate) InstallmentAmount(price types.Money) types.Money {
	financed := price.Mul(types.Hundred.Sub(t.DepositPercentage)).Div(types.Hundred)
	return types.Round2(financed.Div(decimal.NewFromInt(int64(t.Periods))))
}

// TotalDurationMonths is the plan length in calendar months.
func (t *PaymentPlanTemplate) TotalDurationMonths() int {
	return t.Periods * t.Frequency.PeriodMonths()
}

// Matches reports an exact match on the (periods, frequency, deposit%)
// triple.
func (t *PaymentPlanTemplate) Matches(periods int, frequency Frequency, deposit types.Money) bool {
	return t.Periods == periods && t.Frequency == frequency && t.DepositPercentage.Equal(deposit)
}

// AppliesTo reports whether a property price falls inside the template's
// recommended band. Unset bounds are open.
func (t *PaymentPlanTemplate) AppliesTo(price types.Money) bool {
	if t.MinPropertyValue != nil && price.LessThan(*t.MinPropertyValue) {
		return false
	}
	if t.MaxPropertyValue != nil && price.GreaterThan(*t.MaxPropertyValue) {
		return false
	}
	return true
}
