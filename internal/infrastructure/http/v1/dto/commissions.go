package dto

import (
	"time"

	"estateops/internal/core/id"
	"estateops/internal/domain/commissions"
)

// PayCommissionRequest settles an approved commission.
type PayCommissionRequest struct {
	PaidDate   *time.Time `json:"paidDate"`
	PaidAmount *string    `json:"paidAmount"`
	Partial    bool       `json:"partial"`
}

// ToInput parses the request.
func (r PayCommissionRequest) ToInput(commissionID id.ID) (commissions.PayInput, error) {
	in := commissions.PayInput{CommissionID: commissionID, Partial: r.Partial}
	if r.PaidDate != nil {
		in.PaidDate = *r.PaidDate
	}
	var err error
	if in.PaidAmount, err = parseOptionalMoney(r.PaidAmount, "paidAmount"); err != nil {
		return in, err
	}
	return in, nil
}

// CommissionResponse is one ledger row.
type CommissionResponse struct {
	ID               id.ID       `json:"id"`
	SaleID           id.ID       `json:"saleId"`
	AgentID          id.ID       `json:"agentId"`
	CommissionType   string      `json:"commissionType"`
	CommissionRate   *string     `json:"commissionRate,omitempty"`
	CommissionAmount MoneyField  `json:"commissionAmount"`
	Status           string      `json:"status"`
	PaidDate         *string     `json:"paidDate,omitempty"`
	PaidAmount       *MoneyField `json:"paidAmount,omitempty"`
	Notes            string      `json:"notes,omitempty"`
}

// FromCommission maps one ledger row.
func FromCommission(c *commissions.SaleCommission) CommissionResponse {
	resp := CommissionResponse{
		ID:               c.ID,
		SaleID:           c.SaleID,
		AgentID:          c.AgentID,
		CommissionType:   string(c.CommissionType),
		CommissionAmount: NewMoneyField(c.CommissionAmount),
		Status:           string(c.Status),
		PaidDate:         DateStringPtr(c.PaidDate),
		PaidAmount:       NewMoneyFieldPtr(c.PaidAmount),
		Notes:            c.Notes,
	}
	if c.CommissionRate != nil {
		rate := c.CommissionRate.StringFixed(2)
		resp.CommissionRate = &rate
	}
	return resp
}

// FromCommissions maps a ledger slice, never returning nil.
func FromCommissions(cs []*commissions.SaleCommission) []CommissionResponse {
	out := make([]CommissionResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromCommission(c))
	}
	return out
}

// DownPaymentLineResponse is one expected-versus-actual line.
type DownPaymentLineResponse struct {
	SaleItemID id.ID      `json:"saleItemId"`
	SalePrice  MoneyField `json:"salePrice"`
	Expected   MoneyField `json:"expected"`
	Actual     MoneyField `json:"actual"`
	Variance   MoneyField `json:"variance"`
}

// DownPaymentSummaryResponse aggregates the 20% benchmark for one sale.
type DownPaymentSummaryResponse struct {
	Lines          []DownPaymentLineResponse `json:"lines"`
	TotalExpected  MoneyField                `json:"totalExpected"`
	TotalActual    MoneyField                `json:"totalActual"`
	CollectionRate string                    `json:"collectionRate"`
}

// FromDownPaymentSummary maps the summary.
func FromDownPaymentSummary(s *commissions.DownPaymentSummary) DownPaymentSummaryResponse {
	resp := DownPaymentSummaryResponse{
		Lines:          make([]DownPaymentLineResponse, 0, len(s.Lines)),
		TotalExpected:  NewMoneyField(s.TotalExpected),
		TotalActual:    NewMoneyField(s.TotalActual),
		CollectionRate: s.CollectionRate.StringFixed(2),
	}
	for _, l := range s.Lines {
		resp.Lines = append(resp.Lines, DownPaymentLineResponse{
			SaleItemID: l.SaleItemID,
			SalePrice:  NewMoneyField(l.SalePrice),
			Expected:   NewMoneyField(l.Expected),
			Actual:     NewMoneyField(l.Actual),
			Variance:   NewMoneyField(l.Variance),
		})
	}
	return resp
}
