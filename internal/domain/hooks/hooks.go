// Package hooks contains post-sign side effects glued across domains.
// Each hook is gated by a feature flag and runs outside the signing
// transaction; failures are logged by the document engine, not
// propagated.
package hooks

import (
	"context"

	"estateops/internal/core/id"
	"estateops/internal/core/security"
	"estateops/internal/domain/commissions"
	"estateops/internal/domain/documents"
	"estateops/internal/domain/locations"
	"estateops/internal/domain/sales"
	"estateops/pkg/logger"
)

// UnitStatusWriter is the slice of the location layer the sold hook
// touches.
type UnitStatusWriter interface {
	UpdateUnitStatus(ctx context.Context, nodeID id.ID, status locations.UnitStatus) error
}

// SaleItemLocator resolves the sale item behind a signed agreement.
type SaleItemLocator interface {
	FindItemByNodeAndBuyer(ctx context.Context, nodeID, buyerID id.ID) (*sales.PropertySaleItem, error)
}

// CommissionRecomputer re-derives the contract commission for a sale.
type CommissionRecomputer interface {
	Recompute(ctx context.Context, saleID id.ID) (*commissions.SaleCommission, error)
}

// MarkUnitSold flips the unit status to sold once its sales agreement is
// signed. Off by default.
type MarkUnitSold struct {
	flags security.FeatureFlagProvider
	units UnitStatusWriter
	log   *logger.Logger
}

func NewMarkUnitSold(flags security.FeatureFlagProvider, units UnitStatusWriter, log *logger.Logger) *MarkUnitSold {
	return &MarkUnitSold{flags: flags, units: units, log: log.WithComponent("hooks.unit_sold")}
}

func (h *MarkUnitSold) OnAgreementSigned(ctx context.Context, doc *documents.Document) error {
	if !h.flags.IsEnabled(ctx, security.FlagMarkUnitSoldOnSign) {
		return nil
	}

	if err := h.units.UpdateUnitStatus(ctx, doc.PropertyNodeID, locations.UnitSold); err != nil {
		return err
	}
	h.log.WithContext(ctx).Infow("unit marked sold after signing",
		"node_id", doc.PropertyNodeID,
		"document_id", doc.ID,
	)
	return nil
}

// RecomputeCommission re-derives the agent commission from the signed
// sale's item prices. Off by default.
type RecomputeCommission struct {
	flags  security.FeatureFlagProvider
	items  SaleItemLocator
	ledger CommissionRecomputer
	log    *logger.Logger
}

func NewRecomputeCommission(flags security.FeatureFlagProvider, items SaleItemLocator, ledger CommissionRecomputer, log *logger.Logger) *RecomputeCommission {
	return &RecomputeCommission{
		flags:  flags,
		items:  items,
		ledger: ledger,
		log:    log.WithComponent("hooks.commission"),
	}
}

func (h *RecomputeCommission) OnAgreementSigned(ctx context.Context, doc *documents.Document) error {
	if !h.flags.IsEnabled(ctx, security.FlagRecomputeCommissionOnSign) {
		return nil
	}

	item, err := h.items.FindItemByNodeAndBuyer(ctx, doc.PropertyNodeID, doc.BuyerID)
	if err != nil {
		return err
	}

	row, err := h.ledger.Recompute(ctx, item.SaleID)
	if err != nil {
		return err
	}
	h.log.WithContext(ctx).Infow("commission recomputed after signing",
		"sale_id", item.SaleID,
		"commission_id", row.ID,
	)
	return nil
}
