// Package ownership maps location nodes to owning parties and tenants,
// and enforces the hierarchy no-conflict rule for assignments.
package ownership

import (
	"context"
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
)

// OwnerType discriminates the owning party kind.
type OwnerType string

const (
	OwnerUser    OwnerType = "user"
	OwnerCompany OwnerType = "company"
)

// OwnerRef is a tagged reference to an owning party: exactly one of a
// user or a company. The storage layer keeps two nullable columns for
// indexing; code always goes through the tag.
type OwnerRef struct {
	Type OwnerType `json:"type"`
	ID   id.ID     `json:"id"`
}

// Equal reports whether two refs point at the same party.
func (r OwnerRef) Equal(other OwnerRef) bool {
	return r.Type == other.Type && r.ID == other.ID
}

// Validate checks the ref's shape.
func (r OwnerRef) Validate() error {
	if r.Type != OwnerUser && r.Type != OwnerCompany {
		return apperror.NewValidation("owner type must be user or company").
			WithDetail("type", string(r.Type))
	}
	if id.IsNil(r.ID) {
		return apperror.NewValidation("owner id is required")
	}
	return nil
}

// PropertyOwner is one (node → owning party) row. At most one non-deleted
// row exists per node; co-ownership is expressed through sale items, not
// here.
type PropertyOwner struct {
	entity.Base

	NodeID    id.ID     `db:"node_id" json:"nodeId"`
	OwnerType OwnerType `db:"owner_type" json:"ownerType"`
	OwnerID   id.ID     `db:"owner_id" json:"ownerId"`
	StartDate time.Time `db:"start_date" json:"startDate"`
	Notes     string    `db:"notes" json:"notes,omitempty"`
}

// Owner returns the tagged party reference.
func (o *PropertyOwner) Owner() OwnerRef {
	return OwnerRef{Type: o.OwnerType, ID: o.OwnerID}
}

// Validate implements entity.Validatable.
func (o *PropertyOwner) Validate(ctx context.Context) error {
	if id.IsNil(o.NodeID) {
		return apperror.NewValidation("node id is required")
	}
	return o.Owner().Validate()
}

// PropertyTenant is one active tenancy on a node. At most one non-deleted
// row exists per node.
type PropertyTenant struct {
	entity.Base

	NodeID     id.ID      `db:"node_id" json:"nodeId"`
	TenantID   id.ID      `db:"tenant_id" json:"tenantId"`
	LeaseStart time.Time  `db:"lease_start" json:"leaseStart"`
	LeaseEnd   *time.Time `db:"lease_end" json:"leaseEnd,omitempty"`
	Notes      string     `db:"notes" json:"notes,omitempty"`
}

// Validate implements entity.Validatable.
func (t *PropertyTenant) Validate(ctx context.Context) error {
	if id.IsNil(t.NodeID) {
		return apperror.NewValidation("node id is required")
	}
	if id.IsNil(t.TenantID) {
		return apperror.NewValidation("tenant id is required")
	}
	if t.LeaseEnd != nil && !t.LeaseEnd.After(t.LeaseStart) {
		return apperror.NewValidation("lease end must be after lease start")
	}
	return nil
}
