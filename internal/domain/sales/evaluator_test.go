package sales

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/timex"
	"estateops/internal/core/types"
	"estateops/pkg/logger"
)

func newEvaluator(t *testing.T) (*Evaluator, *fakeRepo) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)
	repo := newFakeRepo()
	return NewEvaluator(repo, log), repo
}

func seedSchedule(repo *fakeRepo, planID id.ID, n int, due time.Time, amount string) *PaymentSchedule {
	row := &PaymentSchedule{
		Base:          entity.NewBase(),
		PlanID:        planID,
		PaymentNumber: n,
		DueDate:       due,
		Amount:        types.MustMoney(amount),
		Status:        SchedulePending,
		LateFee:       types.Zero(),
	}
	_ = repo.InsertSchedule(context.Background(), row)
	return row
}

func markRowPaid(repo *fakeRepo, row *PaymentSchedule, paid time.Time, amount string) {
	m := types.MustMoney(amount)
	row.Status = SchedulePaid
	row.PaidDate = &paid
	row.PaidAmount = &m
	_ = repo.UpdateSchedule(context.Background(), row)
}

func TestStats(t *testing.T) {
	ev, repo := newEvaluator(t)
	ctx := context.Background()

	saleID, itemID, planID := id.New(), id.New(), id.New()
	item := &PropertySaleItem{
		Base: entity.NewBase(), SaleID: saleID, PropertyNodeID: id.New(), BuyerID: id.New(),
		SalePrice: types.MustMoney("1000000"), DownPayment: types.MustMoney("100000"),
		DownPaymentPercentage: types.MustMoney("10"), OwnershipPercentage: types.Hundred,
	}
	item.ID = itemID
	require.NoError(t, repo.InsertSaleItem(ctx, item))
	require.NoError(t, repo.InsertPlan(ctx, &PaymentPlan{Base: entity.NewBase(), SaleItemID: itemID, PaymentType: PaymentInstallments}))

	now := time.Now().UTC()
	seedSchedule(repo, planID, 1, now.AddDate(0, 0, -10), "100000") // overdue
	seedSchedule(repo, planID, 2, now.AddDate(0, 0, 5), "100000")   // upcoming
	seedSchedule(repo, planID, 3, now.AddDate(0, 0, 90), "100000")  // beyond the window

	stats, err := ev.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000000.00", stats.TotalSalesValue.StringFixed(2))
	assert.Equal(t, int64(1), stats.ActivePaymentPlans)
	assert.Equal(t, "300000.00", stats.OutstandingPayments.StringFixed(2))
	assert.Equal(t, int64(1), stats.OverdueCount)
	assert.Equal(t, int64(1), stats.UpcomingCount)
}

func TestStatsUpcomingWindowIncludesLastDay(t *testing.T) {
	ev, repo := newEvaluator(t)
	planID := id.New()

	today := timex.DateOnly(time.Now().UTC())
	seedSchedule(repo, planID, 1, today.AddDate(0, 0, 30), "100000") // last day of the window
	seedSchedule(repo, planID, 2, today.AddDate(0, 0, 31), "100000") // one day past it

	stats, err := ev.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.UpcomingCount, "a row due exactly 30 days out counts")
}

func TestCollectionRate(t *testing.T) {
	ev, repo := newEvaluator(t)
	planID := id.New()

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	first := seedSchedule(repo, planID, 1, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), "100000")
	seedSchedule(repo, planID, 2, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), "100000")

	markRowPaid(repo, first, time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC), "75000")

	rate, err := ev.CollectionRate(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, "37.50", rate.StringFixed(2))
}

func TestCollectionRateEmptyWindow(t *testing.T) {
	ev, _ := newEvaluator(t)
	day := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := ev.CollectionRate(context.Background(), day, day)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCollectionRateNoDueRows(t *testing.T) {
	ev, _ := newEvaluator(t)

	rate, err := ev.CollectionRate(context.Background(),
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, rate.IsZero())
}

func TestMonthlyChart(t *testing.T) {
	ev, repo := newEvaluator(t)
	planID := id.New()

	from := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

	jan := seedSchedule(repo, planID, 1, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), "80000")
	seedSchedule(repo, planID, 2, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), "80000")
	seedSchedule(repo, planID, 3, time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC), "80000")

	// January's row settled late, in February.
	markRowPaid(repo, jan, time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), "80000")

	points, err := ev.MonthlyChart(context.Background(), from, to, time.UTC)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2025-01", points[0].Month)
	assert.Equal(t, "80000.00", points[0].Expected.StringFixed(2))
	assert.True(t, points[0].Collected.IsZero())

	assert.Equal(t, "2025-02", points[1].Month)
	assert.Equal(t, "80000.00", points[1].Expected.StringFixed(2))
	assert.Equal(t, "80000.00", points[1].Collected.StringFixed(2))

	assert.Equal(t, "2025-03", points[2].Month)
	assert.Equal(t, "80000.00", points[2].Expected.StringFixed(2))
	assert.True(t, points[2].Collected.IsZero())
}
