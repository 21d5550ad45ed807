// Package rate holds the single global interest rate and the rules that
// govern how it may change.
package rate

import (
	"errors"
	"fmt"
	"sync"

	"github.com/xraph/accrual/types"
)

// Default rate bounds, in per-second fixed-point form at 10^18 precision.
// MaxRate of 1e12 corresponds to one part per million of principal per
// second, comfortably above any rate the vault is expected to offer.
const (
	MinRate types.Rate = 0
	MaxRate types.Rate = 1_000_000_000_000
)

// Sentinel errors for rejected rate changes.
var (
	ErrRateIncrease    = errors.New("rate: rate may only decrease")
	ErrRateOutOfBounds = errors.New("rate: rate outside allowed bounds")
)

// Governor owns the global interest rate. The rate is bounded to
// [MinRate, MaxRate] and monotonically non-increasing over the governor's
// lifetime: existing holders keep the rate pinned at their last mint, so a
// rate that could rise would let the operator dilute them retroactively.
type Governor struct {
	mu      sync.RWMutex
	current types.Rate
}

// NewGovernor creates a Governor starting at the given rate.
// Returns ErrRateOutOfBounds if the initial rate violates the bounds.
func NewGovernor(initial types.Rate) (*Governor, error) {
	if initial < MinRate || initial > MaxRate {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrRateOutOfBounds, initial, MinRate, MaxRate)
	}
	return &Governor{current: initial}, nil
}

// Rate returns the current global rate.
func (g *Governor) Rate() types.Rate {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// Set lowers the global rate. The new rate must be within bounds and must
// not exceed the current rate. Returns the previous rate on success.
func (g *Governor) Set(newRate types.Rate) (types.Rate, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if newRate < MinRate || newRate > MaxRate {
		return g.current, fmt.Errorf("%w: %d not in [%d, %d]", ErrRateOutOfBounds, newRate, MinRate, MaxRate)
	}
	if newRate > g.current {
		return g.current, fmt.Errorf("%w: %d > %d", ErrRateIncrease, newRate, g.current)
	}

	old := g.current
	g.current = newRate
	return old, nil
}

// Adopt replaces the rate with a persisted value when the engine loads
// state at startup. Only the bounds are checked; the monotonicity rule
// applies across a ledger's lifetime, not across process restarts.
func (g *Governor) Adopt(persisted types.Rate) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if persisted < MinRate || persisted > MaxRate {
		return fmt.Errorf("%w: persisted rate %d not in [%d, %d]", ErrRateOutOfBounds, persisted, MinRate, MaxRate)
	}
	g.current = persisted
	return nil
}
