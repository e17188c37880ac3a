package plans

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/tx"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/pkg/logger"
)

// Repository is the persistence contract for the template catalog.
type Repository interface {
	Insert(ctx context.Context, t *PaymentPlanTemplate) error
	Update(ctx context.Context, t *PaymentPlanTemplate) error
	GetByID(ctx context.Context, templateID id.ID) (*PaymentPlanTemplate, error)
	List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*PaymentPlanTemplate], error)

	// ListForWizard returns active templates matching the optional price
	// band and category, ordered by (sort_order, category, name).
	ListForWizard(ctx context.Context, price *types.Money, category string) ([]*PaymentPlanTemplate, error)

	// FindMatching returns the active template matching the exact triple,
	// or a not-found error.
	FindMatching(ctx context.Context, periods int, frequency Frequency, deposit types.Money) (*PaymentPlanTemplate, error)

	// IncrementUsage bumps usage_count and stamps last_used.
	IncrementUsage(ctx context.Context, templateID id.ID, usedAt time.Time) error

	// IsReferenced reports whether any payment plan references the template.
	IsReferenced(ctx context.Context, templateID id.ID) (bool, error)
}

// Service implements the template catalog use cases.
type Service struct {
	repo      Repository
	txManager tx.Manager
	log       *logger.Logger
}

// NewService creates the plan template service.
func NewService(repo Repository, txManager tx.Manager, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		log:       log.WithComponent("plans.service"),
	}
}

// CreateTemplateInput carries the catalog fields of a new template.
type CreateTemplateInput struct {
	Name              string
	Category          string
	Periods           int
	Frequency         Frequency
	DepositPercentage types.Money
	Difficulty        Difficulty
	IsFeatured        bool
	SortOrder         int
	MinPropertyValue  *types.Money
	MaxPropertyValue  *types.Money
}

// Create adds a template to the catalog.
func (s *Service) Create(ctx context.Context, in CreateTemplateInput) (*PaymentPlanTemplate, error) {
	t := &PaymentPlanTemplate{
		Base:              entity.NewBase(),
		Name:              in.Name,
		Category:          in.Category,
		Periods:           in.Periods,
		Frequency:         in.Frequency,
		DepositPercentage: in.DepositPercentage,
		Difficulty:        in.Difficulty,
		IsFeatured:        in.IsFeatured,
		SortOrder:         in.SortOrder,
		IsActive:          true,
		MinPropertyValue:  in.MinPropertyValue,
		MaxPropertyValue:  in.MaxPropertyValue,
	}
	if err := t.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}
	s.log.WithContext(ctx).Infow("template created", "template_id", t.ID, "name", t.Name)
	return t, nil
}

// Update rewrites the catalog fields of an unreferenced template.
// Templates already referenced by a plan are frozen; only deactivation is
// allowed for them.
func (s *Service) Update(ctx context.Context, templateID id.ID, in CreateTemplateInput) (*PaymentPlanTemplate, error) {
	var t *PaymentPlanTemplate
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.repo.GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		referenced, err := s.repo.IsReferenced(ctx, templateID)
		if err != nil {
			return err
		}
		if referenced {
			return apperror.NewStateConflict("template is referenced by existing plans and cannot be edited")
		}
		t.Name = in.Name
		t.Category = in.Category
		t.Periods = in.Periods
		t.Frequency = in.Frequency
		t.DepositPercentage = in.DepositPercentage
		t.Difficulty = in.Difficulty
		t.IsFeatured = in.IsFeatured
		t.SortOrder = in.SortOrder
		t.MinPropertyValue = in.MinPropertyValue
		t.MaxPropertyValue = in.MaxPropertyValue
		if err := t.Validate(ctx); err != nil {
			return err
		}
		t.Touch()
		return s.repo.Update(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// SetActive flips the catalog visibility of a template.
func (s *Service) SetActive(ctx context.Context, templateID id.ID, active bool) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, templateID)
		if err != nil {
			return err
		}
		if t.IsActive == active {
			return nil
		}
		t.IsActive = active
		t.Touch()
		return s.repo.Update(ctx, t)
	})
}

// Get returns one template.
func (s *Service) Get(ctx context.Context, templateID id.ID) (*PaymentPlanTemplate, error) {
	return s.repo.GetByID(ctx, templateID)
}

// List lists templates for catalog administration.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*PaymentPlanTemplate], error) {
	return s.repo.List(ctx, filter)
}

// ListForWizard returns the active templates applicable to a property
// price and optional category, in wizard order.
func (s *Service) ListForWizard(ctx context.Context, price *types.Money, category string) ([]*PaymentPlanTemplate, error) {
	return s.repo.ListForWizard(ctx, price, category)
}

// FindMatching returns the template matching the exact triple, if any.
func (s *Service) FindMatching(ctx context.Context, periods int, frequency Frequency, deposit types.Money) (*PaymentPlanTemplate, error) {
	if !frequency.Valid() {
		return nil, apperror.NewValidation("unknown frequency").WithDetail("frequency", string(frequency))
	}
	return s.repo.FindMatching(ctx, periods, frequency, deposit)
}

// RecordUsage bumps the usage counter after a plan adopts the template.
func (s *Service) RecordUsage(ctx context.Context, templateID id.ID) error {
	return s.repo.IncrementUsage(ctx, templateID, time.Now().UTC())
}
