// Package entity holds the base type embedded by all persisted entities.
package entity

import (
	"context"
	"time"

	"estateops/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// Base contains the fields every entity carries: a UUIDv7 primary key,
// UTC audit timestamps, a soft-delete flag and a version counter for
// optimistic locking. Read queries filter is_deleted by default.
type Base struct {
	ID        id.ID     `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	IsDeleted bool      `db:"is_deleted" json:"isDeleted"`
	Version   int       `db:"version" json:"version"`
}

// NewBase creates a Base with a generated ID and current timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// Touch updates the UpdatedAt timestamp and increments the version.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
	b.Version++
}

// MarkDeleted sets the soft-delete flag.
func (b *Base) MarkDeleted() {
	b.IsDeleted = true
	b.Touch()
}
