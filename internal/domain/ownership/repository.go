package ownership

import (
	"context"

	"estateops/internal/core/id"
	"estateops/internal/domain"
	"estateops/internal/domain/locations"
)

// Repository is the persistence contract for owners and tenants.
type Repository interface {
	InsertOwner(ctx context.Context, o *PropertyOwner) error

	// GetOwnerByNode returns the non-deleted owner row for a node, or a
	// not-found error.
	GetOwnerByNode(ctx context.Context, nodeID id.ID) (*PropertyOwner, error)

	// GetOwnersByNodes returns the non-deleted owner rows for any of the
	// given nodes.
	GetOwnersByNodes(ctx context.Context, nodeIDs []id.ID) ([]*PropertyOwner, error)

	// ListByOwner lists the nodes a party owns.
	ListByOwner(ctx context.Context, owner OwnerRef, filter domain.ListFilter) (*domain.ListResult[*PropertyOwner], error)

	// HardDeleteOwnerByNode removes the owner row outright so the node can
	// be reassigned. Returns false when no row existed.
	HardDeleteOwnerByNode(ctx context.Context, nodeID id.ID) (bool, error)

	InsertTenant(ctx context.Context, t *PropertyTenant) error

	// GetTenantByNode returns the non-deleted tenant row for a node, or a
	// not-found error.
	GetTenantByNode(ctx context.Context, nodeID id.ID) (*PropertyTenant, error)

	UpdateTenant(ctx context.Context, t *PropertyTenant) error
}

// TreeReader is the slice of the location repository the validator needs.
type TreeReader interface {
	GetNode(ctx context.Context, nodeID id.ID) (*locations.LocationNode, error)
	Ancestors(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error)
	Descendants(ctx context.Context, node *locations.LocationNode) ([]*locations.LocationNode, error)
	GetUnitDetail(ctx context.Context, nodeID id.ID) (*locations.UnitDetail, error)
	SaveUnitDetail(ctx context.Context, d *locations.UnitDetail) error
}

// PartyDirectory resolves display names for error messages and listings.
type PartyDirectory interface {
	OwnerDisplayName(ctx context.Context, owner OwnerRef) (string, error)
}
