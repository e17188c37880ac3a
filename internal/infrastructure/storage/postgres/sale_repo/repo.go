// Package sale_repo persists sales, sale items, payment plans and
// schedules, and serves the dashboard aggregates.
package sale_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/sales"
	"estateops/internal/infrastructure/storage/postgres"
)

const (
	salesTable     = "property_sales"
	itemsTable     = "property_sale_items"
	plansTable     = "payment_plans"
	schedulesTable = "payment_schedules"
)

// Repo implements sales.Repository.
type Repo struct {
	sales     *postgres.BaseRepo[*sales.PropertySale]
	items     *postgres.BaseRepo[*sales.PropertySaleItem]
	plans     *postgres.BaseRepo[*sales.PaymentPlan]
	schedules *postgres.BaseRepo[*sales.PaymentSchedule]
}

// NewRepo creates the sale repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{
		sales: postgres.NewBaseRepo[*sales.PropertySale](
			tm, salesTable, []string{"notes"},
			func() *sales.PropertySale { return &sales.PropertySale{} },
		),
		items: postgres.NewBaseRepo[*sales.PropertySaleItem](
			tm, itemsTable, nil,
			func() *sales.PropertySaleItem { return &sales.PropertySaleItem{} },
		),
		plans: postgres.NewBaseRepo[*sales.PaymentPlan](
			tm, plansTable, nil,
			func() *sales.PaymentPlan { return &sales.PaymentPlan{} },
		),
		schedules: postgres.NewBaseRepo[*sales.PaymentSchedule](
			tm, schedulesTable, nil,
			func() *sales.PaymentSchedule { return &sales.PaymentSchedule{} },
		),
	}
}

func (r *Repo) InsertSale(ctx context.Context, s *sales.PropertySale) error {
	return r.sales.Insert(ctx, s)
}

func (r *Repo) GetSale(ctx context.Context, saleID id.ID) (*sales.PropertySale, error) {
	sale, err := r.sales.GetByID(ctx, saleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("property sale", saleID)
		}
		return nil, err
	}
	return sale, nil
}

func (r *Repo) UpdateSale(ctx context.Context, s *sales.PropertySale) error {
	return r.sales.Update(ctx, s)
}

func (r *Repo) ListSales(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*sales.PropertySale], error) {
	return r.sales.List(ctx, filter)
}

func (r *Repo) InsertSaleItem(ctx context.Context, i *sales.PropertySaleItem) error {
	return r.items.Insert(ctx, i)
}

func (r *Repo) GetSaleItem(ctx context.Context, itemID id.ID) (*sales.PropertySaleItem, error) {
	item, err := r.items.GetByID(ctx, itemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale item", itemID)
		}
		return nil, err
	}
	return item, nil
}

func (r *Repo) ListItemsBySale(ctx context.Context, saleID id.ID) ([]*sales.PropertySaleItem, error) {
	var items []*sales.PropertySaleItem
	q := r.items.BaseSelect().
		Where(squirrel.Eq{"sale_id": saleID}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("created_at")
	if err := r.items.FindMany(ctx, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindItemByNodeAndBuyer returns the newest sale item for a (property,
// buyer) pair. Used by post-sign hooks to locate the originating sale.
func (r *Repo) FindItemByNodeAndBuyer(ctx context.Context, nodeID, buyerID id.ID) (*sales.PropertySaleItem, error) {
	item := &sales.PropertySaleItem{}
	q := r.items.BaseSelect().
		Where(squirrel.Eq{"property_node_id": nodeID}).
		Where(squirrel.Eq{"buyer_id": buyerID}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("created_at DESC").
		Limit(1)
	if err := r.items.FindOne(ctx, q, item); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale item", nodeID)
		}
		return nil, err
	}
	return item, nil
}

func (r *Repo) CountItemsByNode(ctx context.Context, nodeID id.ID) (int64, error) {
	var n int64
	if err := r.items.Querier(ctx).QueryRow(ctx,
		"SELECT COUNT(*) FROM property_sale_items WHERE property_node_id = $1 AND is_deleted = false",
		nodeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sale items by node: %w", err)
	}
	return n, nil
}

func (r *Repo) InsertPlan(ctx context.Context, p *sales.PaymentPlan) error {
	return r.plans.Insert(ctx, p)
}

func (r *Repo) GetPlanBySaleItem(ctx context.Context, itemID id.ID) (*sales.PaymentPlan, error) {
	plan := &sales.PaymentPlan{}
	q := r.plans.BaseSelect().
		Where(squirrel.Eq{"sale_item_id": itemID}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.plans.FindOne(ctx, q, plan); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("payment plan", itemID)
		}
		return nil, err
	}
	return plan, nil
}

func (r *Repo) UpdatePlan(ctx context.Context, p *sales.PaymentPlan) error {
	return r.plans.Update(ctx, p)
}

func (r *Repo) InsertSchedule(ctx context.Context, s *sales.PaymentSchedule) error {
	return r.schedules.Insert(ctx, s)
}

func (r *Repo) GetSchedule(ctx context.Context, scheduleID id.ID) (*sales.PaymentSchedule, error) {
	row, err := r.schedules.GetByID(ctx, scheduleID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("payment schedule", scheduleID)
		}
		return nil, err
	}
	return row, nil
}

func (r *Repo) UpdateSchedule(ctx context.Context, s *sales.PaymentSchedule) error {
	return r.schedules.Update(ctx, s)
}

func (r *Repo) ListSchedulesByPlan(ctx context.Context, planID id.ID) ([]*sales.PaymentSchedule, error) {
	var rows []*sales.PaymentSchedule
	q := r.schedules.BaseSelect().
		Where(squirrel.Eq{"plan_id": planID}).
		Where(squirrel.Eq{"is_deleted": false}).
		OrderBy("payment_number")
	if err := r.schedules.FindMany(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// DeletePendingSchedules removes pending rows outright so a plan
// restructure can regenerate them. Paid and cancelled rows stay.
func (r *Repo) DeletePendingSchedules(ctx context.Context, planID id.ID) (int64, error) {
	sql, args, err := r.schedules.Builder().
		Delete(schedulesTable).
		Where(squirrel.Eq{"plan_id": planID}).
		Where(squirrel.Eq{"status": sales.SchedulePending}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	result, err := r.schedules.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete pending schedules: %w", err)
	}
	return result.RowsAffected(), nil
}

// --- Evaluator aggregates ---

// liveSchedulesFrom joins schedules to their sale so cancelled sales fall
// out of every aggregate.
const liveSchedulesFrom = `
	payment_schedules sch
	JOIN payment_plans pl ON pl.id = sch.plan_id AND pl.is_deleted = false
	JOIN property_sale_items it ON it.id = pl.sale_item_id AND it.is_deleted = false
	JOIN property_sales sa ON sa.id = it.sale_id AND sa.is_deleted = false AND sa.status <> 'cancelled'`

func (r *Repo) SumItemPrices(ctx context.Context) (types.Money, error) {
	var total types.Money
	err := r.items.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(it.sale_price), 0)
		FROM property_sale_items it
		JOIN property_sales sa ON sa.id = it.sale_id AND sa.is_deleted = false AND sa.status <> 'cancelled'
		WHERE it.is_deleted = false`).Scan(&total)
	if err != nil {
		return types.Money{}, fmt.Errorf("sum sale prices: %w", err)
	}
	return total, nil
}

func (r *Repo) CountInstallmentPlans(ctx context.Context) (int64, error) {
	var n int64
	err := r.plans.Querier(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM payment_plans pl
		JOIN property_sale_items it ON it.id = pl.sale_item_id AND it.is_deleted = false
		JOIN property_sales sa ON sa.id = it.sale_id AND sa.is_deleted = false AND sa.status <> 'cancelled'
		WHERE pl.is_deleted = false AND pl.payment_type = 'installments'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count installment plans: %w", err)
	}
	return n, nil
}

func (r *Repo) SumPendingAmount(ctx context.Context) (types.Money, error) {
	var total types.Money
	err := r.schedules.Querier(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(sch.amount), 0)
		FROM`+liveSchedulesFrom+`
		WHERE sch.is_deleted = false AND sch.status = 'pending'`).Scan(&total)
	if err != nil {
		return types.Money{}, fmt.Errorf("sum pending amount: %w", err)
	}
	return total, nil
}

func (r *Repo) CountPendingDueBefore(ctx context.Context, day time.Time) (int64, error) {
	var n int64
	err := r.schedules.Querier(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM`+liveSchedulesFrom+`
		WHERE sch.is_deleted = false AND sch.status = 'pending' AND sch.due_date < $1`,
		day).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overdue schedules: %w", err)
	}
	return n, nil
}

func (r *Repo) CountPendingDueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := r.schedules.Querier(ctx).QueryRow(ctx, `
		SELECT COUNT(*)
		FROM`+liveSchedulesFrom+`
		WHERE sch.is_deleted = false AND sch.status = 'pending'
		  AND sch.due_date >= $1 AND sch.due_date <= $2`,
		from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count upcoming schedules: %w", err)
	}
	return n, nil
}

func (r *Repo) schedulesWhere(ctx context.Context, cond string, args ...any) ([]*sales.PaymentSchedule, error) {
	cols := ""
	for i, c := range postgres.ExtractDBColumns[*sales.PaymentSchedule]() {
		if i > 0 {
			cols += ", "
		}
		cols += "sch." + c
	}
	var rows []*sales.PaymentSchedule
	q := `SELECT ` + cols + ` FROM` + liveSchedulesFrom + ` WHERE sch.is_deleted = false AND ` + cond + ` ORDER BY sch.due_date`
	if err := r.schedules.Select(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	return rows, nil
}

func (r *Repo) SchedulesDueBetween(ctx context.Context, from, to time.Time) ([]*sales.PaymentSchedule, error) {
	return r.schedulesWhere(ctx,
		"sch.status <> 'cancelled' AND sch.due_date >= $1 AND sch.due_date < $2",
		from, to)
}

func (r *Repo) SchedulesPaidBetween(ctx context.Context, from, to time.Time) ([]*sales.PaymentSchedule, error) {
	return r.schedulesWhere(ctx,
		"sch.status = 'paid' AND sch.paid_date >= $1 AND sch.paid_date < $2",
		from, to)
}
