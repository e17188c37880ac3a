package commissions

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/timex"
	"estateops/internal/core/tx"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/sales"
	"estateops/pkg/logger"
)

// autoRate is the house rate applied when a commission is recomputed
// after contract signature.
var autoRate = types.MustMoney("3")

// expectedDownPaymentRate is the benchmark down payment: 20% of the sale
// price.
var expectedDownPaymentRate = types.MustMoney("20")

// Repository is the persistence contract for the ledger.
type Repository interface {
	Insert(ctx context.Context, c *SaleCommission) error
	Update(ctx context.Context, c *SaleCommission) error
	GetByID(ctx context.Context, commissionID id.ID) (*SaleCommission, error)
	GetBySale(ctx context.Context, saleID id.ID) (*SaleCommission, error)
	List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*SaleCommission], error)
	ListByAgent(ctx context.Context, agentID id.ID, filter domain.ListFilter) (*domain.ListResult[*SaleCommission], error)
}

// SaleItemReader is the slice of the sale engine the ledger reads.
type SaleItemReader interface {
	ListItemsBySale(ctx context.Context, saleID id.ID) ([]*sales.PropertySaleItem, error)
}

// Service implements the commission ledger.
type Service struct {
	repo      Repository
	items     SaleItemReader
	txManager tx.Manager
	log       *logger.Logger
}

// NewService creates the commission service.
func NewService(repo Repository, items SaleItemReader, txManager tx.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		items:     items,
		txManager: txManager,
		log:       log.WithComponent("commissions.service"),
	}
}

// RecordPending writes the pending ledger row inside the sale creation
// transaction. Implements the sale engine's recorder contract.
func (s *Service) RecordPending(ctx context.Context, saleID, agentID id.ID, commissionType string, rate *types.Money, amount types.Money) error {
	row := &SaleCommission{
		Base:             entity.NewBase(),
		SaleID:           saleID,
		AgentID:          agentID,
		CommissionType:   CommissionType(commissionType),
		CommissionRate:   rate,
		CommissionAmount: amount,
		Status:           StatusPending,
	}
	if err := row.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Insert(ctx, row)
}

// Get returns one ledger row.
func (s *Service) Get(ctx context.Context, commissionID id.ID) (*SaleCommission, error) {
	return s.repo.GetByID(ctx, commissionID)
}

// GetBySale returns the ledger row of a sale.
func (s *Service) GetBySale(ctx context.Context, saleID id.ID) (*SaleCommission, error) {
	return s.repo.GetBySale(ctx, saleID)
}

// List lists ledger rows.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*SaleCommission], error) {
	return s.repo.List(ctx, filter)
}

// ListByAgent lists an agent's ledger rows.
func (s *Service) ListByAgent(ctx context.Context, agentID id.ID, filter domain.ListFilter) (*domain.ListResult[*SaleCommission], error) {
	return s.repo.ListByAgent(ctx, agentID, filter)
}

// Approve moves a pending commission to approved.
func (s *Service) Approve(ctx context.Context, commissionID id.ID) (*SaleCommission, error) {
	return s.transition(ctx, commissionID, StatusApproved, nil)
}

// Cancel terminates an unpaid commission.
func (s *Service) Cancel(ctx context.Context, commissionID id.ID) (*SaleCommission, error) {
	return s.transition(ctx, commissionID, StatusCancelled, nil)
}

// PayInput settles a commission. PaidAmount is only honored together
// with Partial; otherwise the full commission amount is required.
type PayInput struct {
	CommissionID id.ID
	PaidDate     time.Time
	PaidAmount   *types.Money
	Partial      bool
}

// Pay settles an approved commission. The paid date must be today and the
// amount must equal the commission amount unless a partial payment is
// explicitly requested.
func (s *Service) Pay(ctx context.Context, in PayInput) (*SaleCommission, error) {
	today := timex.DateOnly(time.Now().UTC())
	paidDate := timex.DateOnly(in.PaidDate)
	if in.PaidDate.IsZero() {
		paidDate = today
	}
	if !paidDate.Equal(today) {
		return nil, apperror.NewValidation("commissions are paid with today's date")
	}

	return s.transition(ctx, in.CommissionID, StatusPaid, func(row *SaleCommission) error {
		amount := row.CommissionAmount
		if in.PaidAmount != nil {
			amount = *in.PaidAmount
		}
		if !amount.IsPositive() {
			return apperror.NewValidation("paid amount must be positive")
		}
		if !in.Partial && !amount.Equal(row.CommissionAmount) {
			return apperror.NewValidation("paid amount must equal the commission amount unless the payment is partial")
		}
		if amount.GreaterThan(row.CommissionAmount) {
			return apperror.NewValidation("paid amount exceeds the commission amount")
		}
		row.PaidDate = &paidDate
		row.PaidAmount = &amount
		return nil
	})
}

func (s *Service) transition(ctx context.Context, commissionID id.ID, next CommissionStatus, mutate func(*SaleCommission) error) (*SaleCommission, error) {
	var row *SaleCommission
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.repo.GetByID(ctx, commissionID)
		if err != nil {
			return err
		}
		if !row.Status.CanTransitionTo(next) {
			return apperror.NewInvalidStatusTransition("commission", string(row.Status), string(next))
		}
		if mutate != nil {
			if err := mutate(row); err != nil {
				return err
			}
		}
		row.Status = next
		row.Touch()
		return s.repo.Update(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infow("commission transition",
		"commission_id", commissionID, "status", next)
	return row, nil
}

// Recompute rewrites the commission amount as 3% of the summed item
// prices. Used by the post-sign hook; paid commissions are frozen.
func (s *Service) Recompute(ctx context.Context, saleID id.ID) (*SaleCommission, error) {
	var row *SaleCommission
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		row, err = s.repo.GetBySale(ctx, saleID)
		if err != nil {
			return err
		}
		if row.Status == StatusPaid || row.Status == StatusCancelled {
			return apperror.NewStateConflict("commission is settled and cannot be recomputed")
		}
		items, err := s.items.ListItemsBySale(ctx, saleID)
		if err != nil {
			return err
		}
		total := types.Zero()
		for _, item := range items {
			total = total.Add(item.SalePrice)
		}
		rate := autoRate
		row.CommissionType = TypePercent
		row.CommissionRate = &rate
		row.CommissionAmount = types.PercentOf(total, rate)
		row.Touch()
		return s.repo.Update(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// DownPaymentLine is the per-item view of the 20% benchmark.
type DownPaymentLine struct {
	SaleItemID id.ID       `json:"saleItemId"`
	SalePrice  types.Money `json:"salePrice"`
	Expected   types.Money `json:"expected"`
	Actual     types.Money `json:"actual"`
	Variance   types.Money `json:"variance"`
}

// DownPaymentSummary aggregates the benchmark across one sale.
type DownPaymentSummary struct {
	Lines          []*DownPaymentLine `json:"lines"`
	TotalExpected  types.Money        `json:"totalExpected"`
	TotalActual    types.Money        `json:"totalActual"`
	CollectionRate types.Money        `json:"collectionRate"`
}

// DownPayments computes expected-versus-actual down payments for a sale:
// expected is 20% of each item price, variance is actual − expected, and
// the collection rate is Σ actual / Σ expected × 100.
func (s *Service) DownPayments(ctx context.Context, saleID id.ID) (*DownPaymentSummary, error) {
	items, err := s.items.ListItemsBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, apperror.NewNotFound("sale", saleID)
	}

	out := &DownPaymentSummary{
		TotalExpected: types.Zero(),
		TotalActual:   types.Zero(),
	}
	for _, item := range items {
		expected := types.PercentOf(item.SalePrice, expectedDownPaymentRate)
		line := &DownPaymentLine{
			SaleItemID: item.ID,
			SalePrice:  item.SalePrice,
			Expected:   expected,
			Actual:     item.DownPayment,
			Variance:   item.DownPayment.Sub(expected),
		}
		out.Lines = append(out.Lines, line)
		out.TotalExpected = out.TotalExpected.Add(expected)
		out.TotalActual = out.TotalActual.Add(item.DownPayment)
	}
	out.CollectionRate = types.RatioPercent(out.TotalActual, out.TotalExpected)
	return out, nil
}
