package sales

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/timex"
	"estateops/internal/core/types"
	"estateops/pkg/logger"
)

// upcomingWindowDays is the dashboard's look-ahead for upcoming payments.
const upcomingWindowDays = 30

// Evaluator answers the derived-status and KPI queries over schedules.
// Statuses are computed against the clock at read time; nothing here
// writes.
type Evaluator struct {
	repo Repository
	log  *logger.Logger
}

// NewEvaluator creates the schedule evaluator.
func NewEvaluator(repo Repository, log *logger.Logger) *Evaluator {
	return &Evaluator{repo: repo, log: log.WithComponent("sales.evaluator")}
}

// Stats is the dashboard KPI set.
type Stats struct {
	TotalSalesValue     types.Money `json:"totalSalesValue"`
	ActivePaymentPlans  int64       `json:"activePaymentPlans"`
	OutstandingPayments types.Money `json:"outstandingPayments"`
	OverdueCount        int64       `json:"overdueCount"`
	UpcomingCount       int64       `json:"upcomingCount"`
}

// Stats aggregates the KPIs over non-deleted, non-cancelled schedules.
func (e *Evaluator) Stats(ctx context.Context) (*Stats, error) {
	today := timex.DateOnly(time.Now().UTC())

	total, err := e.repo.SumItemPrices(ctx)
	if err != nil {
		return nil, err
	}
	activePlans, err := e.repo.CountInstallmentPlans(ctx)
	if err != nil {
		return nil, err
	}
	outstanding, err := e.repo.SumPendingAmount(ctx)
	if err != nil {
		return nil, err
	}
	overdue, err := e.repo.CountPendingDueBefore(ctx, today)
	if err != nil {
		return nil, err
	}
	upcoming, err := e.repo.CountPendingDueBetween(ctx, today, today.AddDate(0, 0, upcomingWindowDays))
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalSalesValue:     total,
		ActivePaymentPlans:  activePlans,
		OutstandingPayments: outstanding,
		OverdueCount:        overdue,
		UpcomingCount:       upcoming,
	}, nil
}

// CollectionRate computes Σ paid_amount over rows paid in the window
// divided by Σ amount over rows due in the window, as a percentage.
func (e *Evaluator) CollectionRate(ctx context.Context, from, to time.Time) (types.Money, error) {
	if !from.Before(to) {
		return types.Zero(), apperror.NewValidation("window start must precede its end")
	}
	due, err := e.repo.SchedulesDueBetween(ctx, from, to)
	if err != nil {
		return types.Zero(), err
	}
	paid, err := e.repo.SchedulesPaidBetween(ctx, from, to)
	if err != nil {
		return types.Zero(), err
	}

	expected := types.Zero()
	for _, r := range due {
		expected = expected.Add(r.Amount)
	}
	collected := types.Zero()
	for _, r := range paid {
		if r.PaidAmount != nil {
			collected = collected.Add(*r.PaidAmount)
		}
	}
	return types.RatioPercent(collected, expected), nil
}

// MonthPoint is one month of the chart series.
type MonthPoint struct {
	Month     string      `json:"month"` // "2025-01"
	Expected  types.Money `json:"expected"`
	Collected types.Money `json:"collected"`
}

// MonthlyChart partitions the window by calendar month in the caller's
// time zone and sums expected (due) against collected (paid) amounts.
// loc nil means UTC.
func (e *Evaluator) MonthlyChart(ctx context.Context, from, to time.Time, loc *time.Location) ([]*MonthPoint, error) {
	if loc == nil {
		loc = time.UTC
	}
	if !from.Before(to) {
		return nil, apperror.NewValidation("window start must precede its end")
	}

	due, err := e.repo.SchedulesDueBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	paid, err := e.repo.SchedulesPaidBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	points := make(map[string]*MonthPoint)
	var order []string
	for cursor := timex.MonthStart(from, loc); cursor.Before(to); cursor = cursor.AddDate(0, 1, 0) {
		key := cursor.Format("2006-01")
		points[key] = &MonthPoint{Month: key, Expected: types.Zero(), Collected: types.Zero()}
		order = append(order, key)
	}

	for _, r := range due {
		key := r.DueDate.In(loc).Format("2006-01")
		if p, ok := points[key]; ok {
			p.Expected = p.Expected.Add(r.Amount)
		}
	}
	for _, r := range paid {
		if r.PaidDate == nil || r.PaidAmount == nil {
			continue
		}
		key := r.PaidDate.In(loc).Format("2006-01")
		if p, ok := points[key]; ok {
			p.Collected = p.Collected.Add(*r.PaidAmount)
		}
	}

	out := make([]*MonthPoint, len(order))
	for i, key := range order {
		out[i] = points[key]
	}
	return out, nil
}
