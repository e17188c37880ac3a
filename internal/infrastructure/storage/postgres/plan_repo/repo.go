// Package plan_repo persists the payment-plan template catalog.
package plan_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain/plans"
	"estateops/internal/infrastructure/storage/postgres"
)

const templatesTable = "payment_plan_templates"

// Repo implements plans.Repository.
type Repo struct {
	*postgres.BaseRepo[*plans.PaymentPlanTemplate]
}

// NewRepo creates the template catalog repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo[*plans.PaymentPlanTemplate](
			tm, templatesTable, []string{"name", "category"},
			func() *plans.PaymentPlanTemplate { return &plans.PaymentPlanTemplate{} },
		),
	}
}

// ListForWizard returns active templates whose price band admits the
// given price, ordered for the selection wizard. A template with open
// band edges admits any price on that side.
func (r *Repo) ListForWizard(ctx context.Context, price *types.Money, category string) ([]*plans.PaymentPlanTemplate, error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("sort_order", "category", "name")
	if category != "" {
		q = q.Where(squirrel.Eq{"category": category})
	}
	if price != nil {
		q = q.Where(squirrel.Or{
			squirrel.Eq{"min_property_value": nil},
			squirrel.LtOrEq{"min_property_value": *price},
		})
		q = q.Where(squirrel.Or{
			squirrel.Eq{"max_property_value": nil},
			squirrel.GtOrEq{"max_property_value": *price},
		})
	}

	var templates []*plans.PaymentPlanTemplate
	if err := r.FindMany(ctx, q, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// FindMatching returns the active template with the exact
// (periods, frequency, deposit) triple.
func (r *Repo) FindMatching(ctx context.Context, periods int, frequency plans.Frequency, deposit types.Money) (*plans.PaymentPlanTemplate, error) {
	t := &plans.PaymentPlanTemplate{}
	q := r.BaseSelect().
		Where(squirrel.Eq{"periods": periods}).
		Where(squirrel.Eq{"frequency": frequency}).
		Where(squirrel.Expr("deposit_percentage = ?", deposit)).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.FindOne(ctx, q, t); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("payment plan template", nil)
		}
		return nil, err
	}
	return t, nil
}

// IncrementUsage bumps usage_count and stamps last_used without touching
// the optimistic-lock version; concurrent sales may both record usage.
func (r *Repo) IncrementUsage(ctx context.Context, templateID id.ID, usedAt time.Time) error {
	sql, args, err := r.Builder().
		Update(templatesTable).
		Set("usage_count", squirrel.Expr("usage_count + 1")).
		Set("last_used", usedAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": templateID}).
		Where(squirrel.Eq{"is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(templatesTable, templateID)
	}
	return nil
}

// IsReferenced reports whether any payment plan adopted the template.
func (r *Repo) IsReferenced(ctx context.Context, templateID id.ID) (bool, error) {
	var exists bool
	if err := r.Querier(ctx).QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM payment_plans WHERE template_id = $1)",
		templateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check template references: %w", err)
	}
	return exists, nil
}
