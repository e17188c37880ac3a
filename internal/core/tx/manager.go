// Package tx defines the transaction management contract.
// Domain services depend on this interface; the pgx implementation lives
// in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs functions inside database transactions.
type Manager interface {
	// RunInTransaction executes fn within a read-committed transaction.
	// If fn returns an error the transaction is rolled back, otherwise
	// committed. Nested calls reuse the transaction carried in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// RunSerializable executes fn with serializable isolation. Used by the
	// multi-row operations: sale creation, bulk owner assignment and
	// floor-count adjustment.
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
