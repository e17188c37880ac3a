package dto

import (
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain/plans"
)

// TemplateRequest creates or updates a payment plan template.
type TemplateRequest struct {
	Name              string  `json:"name" binding:"required"`
	Category          string  `json:"category"`
	Periods           int     `json:"periods" binding:"required,min=1"`
	Frequency         string  `json:"frequency" binding:"required"`
	DepositPercentage string  `json:"depositPercentage" binding:"required"`
	Difficulty        string  `json:"difficulty"`
	IsFeatured        bool    `json:"isFeatured"`
	SortOrder         int     `json:"sortOrder"`
	MinPropertyValue  *string `json:"minPropertyValue"`
	MaxPropertyValue  *string `json:"maxPropertyValue"`
}

// ToInput parses the request into the service input.
func (r TemplateRequest) ToInput() (plans.CreateTemplateInput, error) {
	deposit, err := types.NewMoneyFromString(r.DepositPercentage)
	if err != nil {
		return plans.CreateTemplateInput{}, apperror.NewValidation("invalid deposit percentage").
			WithDetail("depositPercentage", r.DepositPercentage)
	}
	in := plans.CreateTemplateInput{
		Name:              r.Name,
		Category:          r.Category,
		Periods:           r.Periods,
		Frequency:         plans.Frequency(r.Frequency),
		DepositPercentage: deposit,
		Difficulty:        plans.Difficulty(r.Difficulty),
		IsFeatured:        r.IsFeatured,
		SortOrder:         r.SortOrder,
	}
	if in.MinPropertyValue, err = parseOptionalMoney(r.MinPropertyValue, "minPropertyValue"); err != nil {
		return plans.CreateTemplateInput{}, err
	}
	if in.MaxPropertyValue, err = parseOptionalMoney(r.MaxPropertyValue, "maxPropertyValue"); err != nil {
		return plans.CreateTemplateInput{}, err
	}
	return in, nil
}

func parseOptionalMoney(s *string, field string) (*types.Money, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	m, err := types.NewMoneyFromString(*s)
	if err != nil {
		return nil, apperror.NewValidation("invalid amount").WithDetail(field, *s)
	}
	return &m, nil
}

// TemplateResponse is one catalog entry. InstallmentAmount is filled when
// the caller supplied a property price to the wizard.
type TemplateResponse struct {
	ID                id.ID       `json:"id"`
	Name              string      `json:"name"`
	Category          string      `json:"category,omitempty"`
	Periods           int         `json:"periods"`
	Frequency         string      `json:"frequency"`
	DepositPercentage string      `json:"depositPercentage"`
	Difficulty        string      `json:"difficulty,omitempty"`
	IsFeatured        bool        `json:"isFeatured"`
	SortOrder         int         `json:"sortOrder"`
	UsageCount        int         `json:"usageCount"`
	LastUsed          *time.Time  `json:"lastUsed,omitempty"`
	IsActive          bool        `json:"isActive"`
	MinPropertyValue  *MoneyField `json:"minPropertyValue,omitempty"`
	MaxPropertyValue  *MoneyField `json:"maxPropertyValue,omitempty"`
	DurationMonths    int         `json:"durationMonths"`
	InstallmentAmount *MoneyField `json:"installmentAmount,omitempty"`
}

// FromTemplate maps a catalog entry. price non-nil adds the computed
// per-installment amount.
func FromTemplate(t *plans.PaymentPlanTemplate, price *types.Money) TemplateResponse {
	resp := TemplateResponse{
		ID:                t.ID,
		Name:              t.Name,
		Category:          t.Category,
		Periods:           t.Periods,
		Frequency:         string(t.Frequency),
		DepositPercentage: t.DepositPercentage.StringFixed(2),
		Difficulty:        string(t.Difficulty),
		IsFeatured:        t.IsFeatured,
		SortOrder:         t.SortOrder,
		UsageCount:        t.UsageCount,
		LastUsed:          t.LastUsed,
		IsActive:          t.IsActive,
		MinPropertyValue:  NewMoneyFieldPtr(t.MinPropertyValue),
		MaxPropertyValue:  NewMoneyFieldPtr(t.MaxPropertyValue),
		DurationMonths:    t.TotalDurationMonths(),
	}
	if price != nil {
		amount := NewMoneyField(t.InstallmentAmount(*price))
		resp.InstallmentAmount = &amount
	}
	return resp
}

// FromTemplates maps a catalog slice, never returning nil.
func FromTemplates(ts []*plans.PaymentPlanTemplate, price *types.Money) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(ts))
	for _, t := range ts {
		out = append(out, FromTemplate(t, price))
	}
	return out
}
