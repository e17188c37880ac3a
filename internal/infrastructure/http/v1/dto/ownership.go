package dto

import (
	"time"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/ownership"
)

// OwnerRefRequest identifies the owning party.
type OwnerRefRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required,uuid"`
}

// ToRef parses the request into a tagged owner reference.
func (r OwnerRefRequest) ToRef() (ownership.OwnerRef, error) {
	ownerID, err := id.Parse(r.ID)
	if err != nil {
		return ownership.OwnerRef{}, apperror.NewValidation("invalid owner id").WithDetail("id", r.ID)
	}
	return ownership.OwnerRef{Type: ownership.OwnerType(r.Type), ID: ownerID}, nil
}

// AssignOwnerRequest assigns one node to an owner.
type AssignOwnerRequest struct {
	NodeID    string          `json:"nodeId" binding:"required,uuid"`
	Owner     OwnerRefRequest `json:"owner" binding:"required"`
	StartDate *time.Time      `json:"startDate"`
	Notes     string          `json:"notes"`
}

// BulkTargetRequest is one node in a bulk assignment.
type BulkTargetRequest struct {
	Type string `json:"type" binding:"required"`
	ID   string `json:"id" binding:"required,uuid"`
}

// BulkAssignRequest assigns one owner to several properties at once.
type BulkAssignRequest struct {
	Owner      OwnerRefRequest     `json:"owner" binding:"required"`
	Properties []BulkTargetRequest `json:"properties" binding:"required,min=1"`
	StartDate  *time.Time          `json:"startDate"`
}

// AssignTenantRequest places a tenant on a unit.
type AssignTenantRequest struct {
	NodeID     string     `json:"nodeId" binding:"required,uuid"`
	TenantID   string     `json:"tenantId" binding:"required,uuid"`
	LeaseStart time.Time  `json:"leaseStart" binding:"required"`
	LeaseEnd   *time.Time `json:"leaseEnd"`
	Notes      string     `json:"notes"`
}

// OwnerResponse is one ownership row.
type OwnerResponse struct {
	ID        id.ID     `json:"id"`
	NodeID    id.ID     `json:"nodeId"`
	OwnerType string    `json:"ownerType"`
	OwnerID   id.ID     `json:"ownerId"`
	StartDate string    `json:"startDate"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromOwner maps an ownership row.
func FromOwner(o *ownership.PropertyOwner) OwnerResponse {
	return OwnerResponse{
		ID:        o.ID,
		NodeID:    o.NodeID,
		OwnerType: string(o.OwnerType),
		OwnerID:   o.OwnerID,
		StartDate: DateString(o.StartDate),
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
	}
}

// FromOwners maps a row slice, never returning nil.
func FromOwners(rows []*ownership.PropertyOwner) []OwnerResponse {
	out := make([]OwnerResponse, 0, len(rows))
	for _, o := range rows {
		out = append(out, FromOwner(o))
	}
	return out
}

// TenantResponse is one tenancy row.
type TenantResponse struct {
	ID         id.ID   `json:"id"`
	NodeID     id.ID   `json:"nodeId"`
	TenantID   id.ID   `json:"tenantId"`
	LeaseStart string  `json:"leaseStart"`
	LeaseEnd   *string `json:"leaseEnd,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// FromTenant maps a tenancy row.
func FromTenant(t *ownership.PropertyTenant) TenantResponse {
	return TenantResponse{
		ID:         t.ID,
		NodeID:     t.NodeID,
		TenantID:   t.TenantID,
		LeaseStart: DateString(t.LeaseStart),
		LeaseEnd:   DateStringPtr(t.LeaseEnd),
		Notes:      t.Notes,
	}
}
