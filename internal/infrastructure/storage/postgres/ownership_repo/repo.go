// Package ownership_repo persists owner and tenant rows.
package ownership_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/ownership"
	"estateops/internal/infrastructure/storage/postgres"
)

const (
	ownersTable  = "property_owners"
	tenantsTable = "property_tenants"
)

// Repo implements ownership.Repository.
type Repo struct {
	owners  *postgres.BaseRepo[*ownership.PropertyOwner]
	tenants *postgres.BaseRepo[*ownership.PropertyTenant]
}

// NewRepo creates the ownership repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{
		owners: postgres.NewBaseRepo[*ownership.PropertyOwner](
			tm, ownersTable, nil,
			func() *ownership.PropertyOwner { return &ownership.PropertyOwner{} },
		),
		tenants: postgres.NewBaseRepo[*ownership.PropertyTenant](
			tm, tenantsTable, nil,
			func() *ownership.PropertyTenant { return &ownership.PropertyTenant{} },
		),
	}
}

func (r *Repo) InsertOwner(ctx context.Context, o *ownership.PropertyOwner) error {
	return r.owners.Insert(ctx, o)
}

// GetOwnerByNode returns the single non-deleted owner row for a node.
func (r *Repo) GetOwnerByNode(ctx context.Context, nodeID id.ID) (*ownership.PropertyOwner, error) {
	owner := &ownership.PropertyOwner{}
	q := r.owners.BaseSelect().
		Where(squirrel.Eq{"node_id": nodeID}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.owners.FindOne(ctx, q, owner); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("property owner", nodeID)
		}
		return nil, err
	}
	return owner, nil
}

func (r *Repo) GetOwnersByNodes(ctx context.Context, nodeIDs []id.ID) ([]*ownership.PropertyOwner, error) {
	if len(nodeIDs) == 0 {
		return nil, nil
	}
	var owners []*ownership.PropertyOwner
	q := r.owners.BaseSelect().
		Where(squirrel.Eq{"node_id": nodeIDs}).
		Where(squirrel.Eq{"is_deleted": false})
	if err := r.owners.FindMany(ctx, q, &owners); err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *Repo) ListByOwner(ctx context.Context, owner ownership.OwnerRef, filter domain.ListFilter) (*domain.ListResult[*ownership.PropertyOwner], error) {
	q := r.owners.BaseSelect().
		Where(squirrel.Eq{"owner_type": owner.Type}).
		Where(squirrel.Eq{"owner_id": owner.ID})
	return r.owners.ListWith(ctx, q, filter)
}

// HardDeleteOwnerByNode removes the owner row outright. Revocation frees
// the node for reassignment, so a soft-deleted remnant would only block
// the partial unique index.
func (r *Repo) HardDeleteOwnerByNode(ctx context.Context, nodeID id.ID) (bool, error) {
	sql, args, err := r.owners.Builder().
		Delete(ownersTable).
		Where(squirrel.Eq{"node_id": nodeID}).
		Where(squirrel.Eq{"is_deleted": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}
	result, err := r.owners.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("delete owner for node %s: %w", nodeID, err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *Repo) InsertTenant(ctx context.Context, t *ownership.PropertyTenant) error {
	return r.tenants.Insert(ctx, t)
}

func (r *Repo) GetTenantByNode(ctx context.Context, nodeID id.ID) (*ownership.PropertyTenant, error) {
	tenant := &ownership.PropertyTenant{}
	q := r.tenants.BaseSelect().
		Where(squirrel.Eq{"node_id": nodeID}).
		Where(squirrel.Eq{"is_deleted": false}).
		Limit(1)
	if err := r.tenants.FindOne(ctx, q, tenant); err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("property tenant", nodeID)
		}
		return nil, err
	}
	return tenant, nil
}

func (r *Repo) UpdateTenant(ctx context.Context, t *ownership.PropertyTenant) error {
	return r.tenants.Update(ctx, t)
}
