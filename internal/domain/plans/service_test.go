package plans

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/core/types"
	"estateops/internal/domain"
	"estateops/pkg/logger"
)

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeCatalogRepo struct {
	templates  map[id.ID]*PaymentPlanTemplate
	referenced map[id.ID]bool
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		templates:  make(map[id.ID]*PaymentPlanTemplate),
		referenced: make(map[id.ID]bool),
	}
}

func (r *fakeCatalogRepo) Insert(ctx context.Context, t *PaymentPlanTemplate) error {
	r.templates[t.ID] = t
	return nil
}

func (r *fakeCatalogRepo) Update(ctx context.Context, t *PaymentPlanTemplate) error {
	r.templates[t.ID] = t
	return nil
}

func (r *fakeCatalogRepo) GetByID(ctx context.Context, templateID id.ID) (*PaymentPlanTemplate, error) {
	t, ok := r.templates[templateID]
	if !ok {
		return nil, apperror.NewNotFound("plan template", templateID)
	}
	return t, nil
}

func (r *fakeCatalogRepo) List(ctx context.Context, filter domain.ListFilter) (*domain.ListResult[*PaymentPlanTemplate], error) {
	out := make([]*PaymentPlanTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	return &domain.ListResult[*PaymentPlanTemplate]{Items: out, TotalCount: int64(len(out))}, nil
}

func (r *fakeCatalogRepo) ListForWizard(ctx context.Context, price *types.Money, category string) ([]*PaymentPlanTemplate, error) {
	var out []*PaymentPlanTemplate
	for _, t := range r.templates {
		if !t.IsActive {
			continue
		}
		if category != "" && t.Category != category {
			continue
		}
		if price != nil && !t.AppliesTo(*price) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r *fakeCatalogRepo) FindMatching(ctx context.Context, periods int, frequency Frequency, deposit types.Money) (*PaymentPlanTemplate, error) {
	for _, t := range r.templates {
		if t.IsActive && t.Matches(periods, frequency, deposit) {
			return t, nil
		}
	}
	return nil, apperror.NewNotFound("plan template", id.Nil())
}

func (r *fakeCatalogRepo) IncrementUsage(ctx context.Context, templateID id.ID, usedAt time.Time) error {
	t, ok := r.templates[templateID]
	if !ok {
		return apperror.NewNotFound("plan template", templateID)
	}
	t.UsageCount++
	t.LastUsed = &usedAt
	return nil
}

func (r *fakeCatalogRepo) IsReferenced(ctx context.Context, templateID id.ID) (bool, error) {
	return r.referenced[templateID], nil
}

func newPlanService(t *testing.T) (*Service, *fakeCatalogRepo) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)
	repo := newFakeCatalogRepo()
	return NewService(repo, fakeTxManager{}, log), repo
}

func starterInput() CreateTemplateInput {
	return CreateTemplateInput{
		Name:              "Starter 12",
		Category:          "standard",
		Periods:           12,
		Frequency:         Monthly,
		DepositPercentage: types.MustMoney("20"),
		Difficulty:        DifficultyEasy,
		SortOrder:         1,
	}
}

func TestCreateTemplate(t *testing.T) {
	svc, _ := newPlanService(t)

	tmpl, err := svc.Create(context.Background(), starterInput())
	require.NoError(t, err)
	assert.True(t, tmpl.IsActive, "new templates are active")
	assert.Equal(t, 12, tmpl.Periods)
}

func TestCreateTemplateValidation(t *testing.T) {
	svc, _ := newPlanService(t)

	cases := map[string]func(in *CreateTemplateInput){
		"blank name":            func(in *CreateTemplateInput) { in.Name = "  " },
		"unknown frequency":     func(in *CreateTemplateInput) { in.Frequency = "weekly" },
		"zero periods":          func(in *CreateTemplateInput) { in.Periods = 0 },
		"over the cadence cap":  func(in *CreateTemplateInput) { in.Frequency = Annual; in.Periods = 11 },
		"deposit over 100":      func(in *CreateTemplateInput) { in.DepositPercentage = types.MustMoney("101") },
		"inverted price band":   func(in *CreateTemplateInput) {
			lo, hi := types.MustMoney("5000000"), types.MustMoney("1000000")
			in.MinPropertyValue = &lo
			in.MaxPropertyValue = &hi
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := starterInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), in)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
		})
	}
}

func TestUpdateTemplate(t *testing.T) {
	svc, _ := newPlanService(t)
	tmpl, err := svc.Create(context.Background(), starterInput())
	require.NoError(t, err)

	in := starterInput()
	in.Name = "Starter 18"
	in.Periods = 18
	updated, err := svc.Update(context.Background(), tmpl.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Starter 18", updated.Name)
	assert.Equal(t, 18, updated.Periods)
}

func TestUpdateReferencedTemplateIsFrozen(t *testing.T) {
	svc, repo := newPlanService(t)
	tmpl, err := svc.Create(context.Background(), starterInput())
	require.NoError(t, err)
	repo.referenced[tmpl.ID] = true

	_, err = svc.Update(context.Background(), tmpl.ID, starterInput())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)

	// Deactivation is still allowed.
	require.NoError(t, svc.SetActive(context.Background(), tmpl.ID, false))
	got, err := svc.Get(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestSetActiveIsIdempotent(t *testing.T) {
	svc, _ := newPlanService(t)
	tmpl, err := svc.Create(context.Background(), starterInput())
	require.NoError(t, err)
	version := tmpl.Version

	require.NoError(t, svc.SetActive(context.Background(), tmpl.ID, true))
	got, err := svc.Get(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, version, got.Version, "no-op activation must not touch the row")
}

func TestListForWizardFiltersByPriceBand(t *testing.T) {
	svc, _ := newPlanService(t)

	lo, hi := types.MustMoney("1000000"), types.MustMoney("5000000")
	banded := starterInput()
	banded.Name = "Mid-market 12"
	banded.MinPropertyValue = &lo
	banded.MaxPropertyValue = &hi
	banded.SortOrder = 2
	_, err := svc.Create(context.Background(), banded)
	require.NoError(t, err)

	open := starterInput()
	open.SortOrder = 1
	_, err = svc.Create(context.Background(), open)
	require.NoError(t, err)

	price := types.MustMoney("8000000")
	got, err := svc.ListForWizard(context.Background(), &price, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Starter 12", got[0].Name)

	price = types.MustMoney("3000000")
	got, err = svc.ListForWizard(context.Background(), &price, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Starter 12", got[0].Name, "wizard order follows sort_order")
}

func TestFindMatching(t *testing.T) {
	svc, _ := newPlanService(t)
	_, err := svc.Create(context.Background(), starterInput())
	require.NoError(t, err)

	got, err := svc.FindMatching(context.Background(), 12, Monthly, types.MustMoney("20"))
	require.NoError(t, err)
	assert.Equal(t, "Starter 12", got.Name)

	_, err = svc.FindMatching(context.Background(), 12, "weekly", types.MustMoney("20"))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	_, err = svc.FindMatching(context.Background(), 24, Monthly, types.MustMoney("20"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordUsage(t *testing.T) {
	svc, _ := newPlanService(t)
	tmpl, err := svc.Create(context.Background(), starterInput())
	require.NoError(t, err)

	require.NoError(t, svc.RecordUsage(context.Background(), tmpl.ID))
	require.NoError(t, svc.RecordUsage(context.Background(), tmpl.ID))

	got, err := svc.Get(context.Background(), tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	assert.NotNil(t, got.LastUsed)
}

func TestInstallmentAmount(t *testing.T) {
	tmpl := PaymentPlanTemplate{
		Periods:           12,
		Frequency:         Monthly,
		DepositPercentage: types.MustMoney("20"),
	}
	// 1,200,000 less the 20% deposit leaves 960,000 over 12 periods.
	got := tmpl.InstallmentAmount(types.MustMoney("1200000"))
	assert.Equal(t, "80000.00", got.StringFixed(2))
}

func TestTotalDurationMonths(t *testing.T) {
	tmpl := PaymentPlanTemplate{Periods: 8, Frequency: Quarterly}
	assert.Equal(t, 24, tmpl.TotalDurationMonths())
}

func TestFrequencyCaps(t *testing.T) {
	// Every cadence tops out at ten years.
	for _, f := range []Frequency{Monthly, Quarterly, SemiAnnual, Annual} {
		assert.Equal(t, 120, f.MaxPeriods()*f.PeriodMonths(), string(f))
	}
	assert.False(t, Frequency("weekly").Valid())
}
