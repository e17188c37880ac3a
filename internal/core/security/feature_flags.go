package security

import (
	"context"
	"sync"
)

// FeatureFlagProvider provides feature flag evaluation.
// Abstraction allows different backends: in-memory, Redis, etc.
type FeatureFlagProvider interface {
	// IsEnabled checks if feature is enabled for context
	IsEnabled(ctx context.Context, flag string) bool
}

// Feature flag names.
const (
	// FlagMarkUnitSoldOnSign flips UnitDetail.status to "sold" when a sales
	// agreement is signed. Off by default; sale creation never touches
	// unit status.
	FlagMarkUnitSoldOnSign = "mark_unit_sold_on_sign"

	// FlagRecomputeCommissionOnSign recomputes the contract commission as
	// 3% of the summed item prices after an agreement is signed.
	FlagRecomputeCommissionOnSign = "recompute_commission_on_sign"
)

// InMemoryFlags is a simple in-memory feature flag provider.
type InMemoryFlags struct {
	mu    sync.RWMutex
	flags map[string]bool
}

// NewInMemoryFlags creates an in-memory flag provider.
func NewInMemoryFlags() *InMemoryFlags {
	return &InMemoryFlags{flags: make(map[string]bool)}
}

func (f *InMemoryFlags) IsEnabled(ctx context.Context, flag string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.flags[flag]
}

// SetFlag sets a boolean flag (for configuration and tests).
func (f *InMemoryFlags) SetFlag(flag string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[flag] = enabled
}
