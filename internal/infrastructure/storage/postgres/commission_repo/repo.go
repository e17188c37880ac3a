// Package commission_repo persists the sale commission ledger.
package commission_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/commissions"
	"estateops/internal/infrastructure/storage/postgres"
)

const commissionsTable = "sale_commissions"

// Repo implements commissions.Repository.
type Repo struct {
	*postgres.BaseRepo[*commissions.SaleCommission]
}

// NewRepo creates the commission repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{
		BaseRepo: postgres.NewBaseRepo[*commissions.SaleCommission](
			tm, commissionsTable, nil,
			func() *commissions.SaleCommission { return &commissions.SaleCommission{} },
		),
	}
}

// GetBySale returns the ledger row of a sale. One sale carries at most
// one commission.
func (r *Repo) GetBySale(ctx context.Context, saleID id.ID) (*commissions.SaleCommission, error) {
	c := &commissions.SaleCommission{}
	q := r.BaseSelect().
		Where(squirrel.Eq{"sale_id": saleID}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.FindOne(ctx, q, c); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("sale commission", saleID)
		}
		return nil, err
	}
	return c, nil
}

// ListByAgent lists an agent's ledger rows.
func (r *Repo) ListByAgent(ctx context.Context, agentID id.ID, filter domain.ListFilter) (*domain.ListResult[*commissions.SaleCommission], error) {
	q := r.BaseSelect().
		Where(squirrel.Eq{"agent_id": agentID})
	return r.ListWith(ctx, q, filter)
}
