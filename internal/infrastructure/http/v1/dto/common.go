// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain"
)

// --- Envelopes ---

// ListData is the payload of a list response.
type ListData struct {
	Count   int64 `json:"count"`
	Results any   `json:"results"`
}

// ListEnvelope wraps list endpoint responses.
type ListEnvelope struct {
	Error   bool     `json:"error"`
	Message string   `json:"message"`
	Data    ListData `json:"data"`
}

// NewListEnvelope builds the standard list envelope. results must be a
// slice; pass an empty slice rather than nil so JSON renders [].
func NewListEnvelope(message string, count int64, results any) ListEnvelope {
	return ListEnvelope{
		Error:   false,
		Message: message,
		Data:    ListData{Count: count, Results: results},
	}
}

// CommandEnvelope wraps command (mutation) responses.
type CommandEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewCommandEnvelope builds the standard command envelope.
func NewCommandEnvelope(message string, data any) CommandEnvelope {
	return CommandEnvelope{Success: true, Message: message, Data: data}
}

// --- Pagination ---

// PaginationRequest contains pagination and ordering parameters.
type PaginationRequest struct {
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
	Search  string `form:"search"`
	OrderBy string `form:"orderBy"`
}

// ToFilter converts query parameters to the domain list filter.
func (p *PaginationRequest) ToFilter() domain.ListFilter {
	f := domain.DefaultListFilter()
	if p.Limit > 0 && p.Limit <= 200 {
		f.Limit = p.Limit
	}
	if p.Offset > 0 {
		f.Offset = p.Offset
	}
	f.Search = p.Search
	f.OrderBy = p.OrderBy
	return f
}

// --- Shared field helpers ---

// MoneyField renders an amount both for machines and for display.
type MoneyField struct {
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

// NewMoneyField builds the two-form money representation.
func NewMoneyField(m types.Money) MoneyField {
	return MoneyField{
		Amount:  types.Round2(m).StringFixed(2),
		Display: types.FormatKES(m),
	}
}

// NewMoneyFieldPtr maps an optional amount.
func NewMoneyFieldPtr(m *types.Money) *MoneyField {
	if m == nil {
		return nil
	}
	f := NewMoneyField(*m)
	return &f
}

// DateString renders a date-only field as ISO 8601.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}

// DateStringPtr maps an optional date.
func DateStringPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := DateString(*t)
	return &s
}

// IDResponse carries the identifier of a created entity.
type IDResponse struct {
	ID id.ID `json:"id"`
}

// SuccessResponse is a bare acknowledgement.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
