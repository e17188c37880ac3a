package hooks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/core/security"
	"estateops/internal/domain/commissions"
	"estateops/internal/domain/documents"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/sales"
	"estateops/pkg/logger"
)

type fakeUnits struct {
	updates map[id.ID]locations.UnitStatus
}

func (f *fakeUnits) UpdateUnitStatus(ctx context.Context, nodeID id.ID, status locations.UnitStatus) error {
	f.updates[nodeID] = status
	return nil
}

type fakeLocator struct {
	item *sales.PropertySaleItem
}

func (f *fakeLocator) FindItemByNodeAndBuyer(ctx context.Context, nodeID, buyerID id.ID) (*sales.PropertySaleItem, error) {
	if f.item == nil || f.item.PropertyNodeID != nodeID || f.item.BuyerID != buyerID {
		return nil, apperror.NewNotFound("sale item", nodeID)
	}
	return f.item, nil
}

type fakeRecomputer struct {
	saleIDs []id.ID
}

func (f *fakeRecomputer) Recompute(ctx context.Context, saleID id.ID) (*commissions.SaleCommission, error) {
	f.saleIDs = append(f.saleIDs, saleID)
	return &commissions.SaleCommission{Base: entity.NewBase(), SaleID: saleID}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)
	return log
}

func signedAgreement() *documents.Document {
	return &documents.Document{
		Base:           entity.NewBase(),
		DocumentType:   documents.SalesAgreement,
		Status:         documents.StatusSigned,
		PropertyNodeID: id.New(),
		BuyerID:        id.New(),
	}
}

func TestMarkUnitSoldDisabledByDefault(t *testing.T) {
	units := &fakeUnits{updates: make(map[id.ID]locations.UnitStatus)}
	hook := NewMarkUnitSold(security.NewInMemoryFlags(), units, testLogger(t))

	require.NoError(t, hook.OnAgreementSigned(context.Background(), signedAgreement()))
	assert.Empty(t, units.updates)
}

func TestMarkUnitSold(t *testing.T) {
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagMarkUnitSoldOnSign, true)
	units := &fakeUnits{updates: make(map[id.ID]locations.UnitStatus)}
	hook := NewMarkUnitSold(flags, units, testLogger(t))

	doc := signedAgreement()
	require.NoError(t, hook.OnAgreementSigned(context.Background(), doc))
	assert.Equal(t, locations.UnitSold, units.updates[doc.PropertyNodeID])
}

func TestRecomputeCommissionDisabledByDefault(t *testing.T) {
	ledger := &fakeRecomputer{}
	hook := NewRecomputeCommission(security.NewInMemoryFlags(), &fakeLocator{}, ledger, testLogger(t))

	require.NoError(t, hook.OnAgreementSigned(context.Background(), signedAgreement()))
	assert.Empty(t, ledger.saleIDs)
}

func TestRecomputeCommission(t *testing.T) {
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagRecomputeCommissionOnSign, true)

	doc := signedAgreement()
	saleID := id.New()
	locator := &fakeLocator{item: &sales.PropertySaleItem{
		Base:           entity.NewBase(),
		SaleID:         saleID,
		PropertyNodeID: doc.PropertyNodeID,
		BuyerID:        doc.BuyerID,
	}}
	ledger := &fakeRecomputer{}
	hook := NewRecomputeCommission(flags, locator, ledger, testLogger(t))

	require.NoError(t, hook.OnAgreementSigned(context.Background(), doc))
	require.Len(t, ledger.saleIDs, 1)
	assert.Equal(t, saleID, ledger.saleIDs[0])
}

func TestRecomputeCommissionUnknownItem(t *testing.T) {
	flags := security.NewInMemoryFlags()
	flags.SetFlag(security.FlagRecomputeCommissionOnSign, true)
	ledger := &fakeRecomputer{}
	hook := NewRecomputeCommission(flags, &fakeLocator{}, ledger, testLogger(t))

	err := hook.OnAgreementSigned(context.Background(), signedAgreement())
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, ledger.saleIDs)
}
