package commissions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/internal/domain/sales"
	"estateops/pkg/logger"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLedgerRepo struct {
	rows map[id.ID]*SaleCommission
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{rows: make(map[id.ID]*SaleCommission)}
}

func (r *fakeLedgerRepo) Insert(ctx context.Context, c *SaleCommission) error {
	r.rows[c.ID] = c
	return nil
}

func (r *fakeLedgerRepo) Update(ctx context.Context, c *SaleCommission) error {
	r.rows[c.ID] = c
	return nil
}

func (r *fakeLedgerRepo) GetByID(ctx context.Context, commissionID id.ID) (*SaleCommission, error) {
	c, ok := r.rows[commissionID]
	if !ok {
		return nil, apperror.NewNotFound("commission", commissionID)
	}
	return c, nil
}

func (r *fakeLedgerRepo) GetBySale(ctx context.Context, saleID id.ID) (*SaleCommission, error) {
	for _, c := range r.rows {
		if c.SaleID == saleID {
			return c, nil
		}
	}
	return nil, apperror.NewNotFound("commission", saleID)
}

func (r *fakeLedgerRepo) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*SaleCommission], error) {
	out := make([]*SaleCommission, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c)
	}
	return &domain.ListResult[*SaleCommission]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeLedgerRepo) ListByAgent(ctx context.Context, agentID id.ID, filter domain.ListFilter) (*domain.ListResult[*SaleCommission], error) {
	var out []*SaleCommission
	for _, c := range r.rows {
		if c.AgentID == agentID {
			out = append(out, c)
		}
	}
	return &domain.ListResult[*SaleCommission]{Items: out, TotalCount: int64(len(out))}, nil
}

type fakeItems struct {
	bySale map[id.ID][]*sales.PropertySaleItem
}

func (f *fakeItems) ListItemsBySale(ctx context.Context, saleID id.ID) ([]*sales.PropertySaleItem, error) {
	return f.bySale[saleID], nil
}

func newLedger(t *testing.T) (*Service, *fakeLedgerRepo, *fakeItems) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)
	repo := newFakeLedgerRepo()
	items := &fakeItems{bySale: make(map[id.ID][]*sales.PropertySaleItem)}
	return NewService(repo, items, fakeTxManager{}, log), repo, items
}

func saleItem(saleID id.ID, price, down string) *sales.PropertySaleItem {
	return &sales.PropertySaleItem{
		Base:                  entity.NewBase(),
		SaleID:                saleID,
		PropertyNodeID:        id.New(),
		BuyerID:               id.New(),
		SalePrice:             types.MustMoney(price),
		DownPayment:           types.MustMoney(down),
		DownPaymentPercentage: types.RatioPercent(types.MustMoney(down), types.MustMoney(price)),
		OwnershipPercentage:   types.Hundred,
	}
}

func recordPending(t *testing.T, svc *Service, repo *fakeLedgerRepo, saleID id.ID) *SaleCommission {
	t.Helper()
	rate := types.MustMoney("5")
	require.NoError(t, svc.RecordPending(context.Background(), saleID, id.New(), string(TypePercent), &rate, types.MustMoney("50000")))
	row, err := repo.GetBySale(context.Background(), saleID)
	require.NoError(t, err)
	return row
}

func TestRecordPending(t *testing.T) {
	svc, repo, _ := newLedger(t)
	saleID := id.New()

	row := recordPending(t, svc, repo, saleID)
	assert.Equal(t, StatusPending, row.Status)
	assert.Equal(t, TypePercent, row.CommissionType)
	assert.Equal(t, "50000.00", row.CommissionAmount.StringFixed(2))
}

func TestRecordPendingValidatesShape(t *testing.T) {
	svc, _, _ := newLedger(t)
	rate := types.MustMoney("5")

	// A fixed commission must not carry a rate.
	err := svc.RecordPending(context.Background(), id.New(), id.New(), string(TypeFixed), &rate, types.MustMoney("50000"))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCommissionLifecycle(t *testing.T) {
	svc, repo, _ := newLedger(t)
	row := recordPending(t, svc, repo, id.New())

	approved, err := svc.Approve(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)

	paid, err := svc.Pay(context.Background(), PayInput{CommissionID: row.ID})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAmount)
	assert.Equal(t, "50000.00", paid.PaidAmount.StringFixed(2))

	// Paid is terminal.
	_, err = svc.Cancel(context.Background(), row.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)
}

func TestPayRequiresApproval(t *testing.T) {
	svc, repo, _ := newLedger(t)
	row := recordPending(t, svc, repo, id.New())

	_, err := svc.Pay(context.Background(), PayInput{CommissionID: row.ID})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)
}

func TestPayRejectsBackdating(t *testing.T) {
	svc, repo, _ := newLedger(t)
	row := recordPending(t, svc, repo, id.New())
	_, err := svc.Approve(context.Background(), row.ID)
	require.NoError(t, err)

	_, err = svc.Pay(context.Background(), PayInput{
		CommissionID: row.ID,
		PaidDate:     time.Now().UTC().AddDate(0, 0, -1),
	})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestPayPartial(t *testing.T) {
	svc, repo, _ := newLedger(t)
	row := recordPending(t, svc, repo, id.New())
	_, err := svc.Approve(context.Background(), row.ID)
	require.NoError(t, err)

	short := types.MustMoney("20000")

	// A short amount without the partial flag is rejected.
	_, err = svc.Pay(context.Background(), PayInput{CommissionID: row.ID, PaidAmount: &short})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	paid, err := svc.Pay(context.Background(), PayInput{CommissionID: row.ID, PaidAmount: &short, Partial: true})
	require.NoError(t, err)
	assert.Equal(t, "20000.00", paid.PaidAmount.StringFixed(2))
}

func TestPayRejectsOverpayment(t *testing.T) {
	svc, repo, _ := newLedger(t)
	row := recordPending(t, svc, repo, id.New())
	_, err := svc.Approve(context.Background(), row.ID)
	require.NoError(t, err)

	over := types.MustMoney("60000")
	_, err = svc.Pay(context.Background(), PayInput{CommissionID: row.ID, PaidAmount: &over, Partial: true})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestCancelPending(t *testing.T) {
	svc, repo, _ := newLedger(t)
	row := recordPending(t, svc, repo, id.New())

	cancelled, err := svc.Cancel(context.Background(), row.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	_, err = svc.Approve(context.Background(), row.ID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidStatusTransition, appErr.Code)
}

func TestRecompute(t *testing.T) {
	svc, repo, items := newLedger(t)
	saleID := id.New()
	row := recordPending(t, svc, repo, saleID)
	items.bySale[saleID] = []*sales.PropertySaleItem{
		saleItem(saleID, "600000", "120000"),
		saleItem(saleID, "400000", "80000"),
	}

	got, err := svc.Recompute(context.Background(), saleID)
	require.NoError(t, err)
	assert.Equal(t, TypePercent, got.CommissionType)
	require.NotNil(t, got.CommissionRate)
	assert.Equal(t, "3", got.CommissionRate.String())
	assert.Equal(t, "30000.00", got.CommissionAmount.StringFixed(2), "3% of the summed item prices")
	assert.Equal(t, row.ID, got.ID)
}

func TestRecomputeFrozenAfterPayment(t *testing.T) {
	svc, repo, items := newLedger(t)
	saleID := id.New()
	row := recordPending(t, svc, repo, saleID)
	items.bySale[saleID] = []*sales.PropertySaleItem{saleItem(saleID, "1000000", "200000")}

	_, err := svc.Approve(context.Background(), row.ID)
	require.NoError(t, err)
	_, err = svc.Pay(context.Background(), PayInput{CommissionID: row.ID})
	require.NoError(t, err)

	_, err = svc.Recompute(context.Background(), saleID)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
}

func TestDownPayments(t *testing.T) {
	svc, _, items := newLedger(t)
	saleID := id.New()
	items.bySale[saleID] = []*sales.PropertySaleItem{
		saleItem(saleID, "1000000", "200000"), // exactly the 20% benchmark
		saleItem(saleID, "500000", "50000"),   // 50,000 short
	}

	summary, err := svc.DownPayments(context.Background(), saleID)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 2)

	assert.Equal(t, "200000.00", summary.Lines[0].Expected.StringFixed(2))
	assert.True(t, summary.Lines[0].Variance.IsZero())
	assert.Equal(t, "100000.00", summary.Lines[1].Expected.StringFixed(2))
	assert.Equal(t, "-50000.00", summary.Lines[1].Variance.StringFixed(2))

	assert.Equal(t, "300000.00", summary.TotalExpected.StringFixed(2))
	assert.Equal(t, "250000.00", summary.TotalActual.StringFixed(2))
	assert.Equal(t, "83.33", summary.CollectionRate.StringFixed(2))
}

func TestDownPaymentsUnknownSale(t *testing.T) {
	svc, _, _ := newLedger(t)
	_, err := svc.DownPayments(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
