package accrual

import (
	"sync"
	"sync/atomic"
)

// opGuard is the mutual-exclusion discipline for state-changing operations.
// Entry is try-only: an operation arriving while another is in progress is
// rejected with ErrReentrantCall rather than queued. Rejection is what makes
// the guard safe against re-entry through the vault's asset payout: the
// payout can hand control to externally-controlled code on the same
// goroutine, where a blocking lock would deadlock instead of failing.
type opGuard struct {
	busy atomic.Bool
}

// enter acquires the guard and returns a scoped release function, or
// ErrReentrantCall if an operation is already in progress. The release
// function is idempotent, so it can be both deferred and called early on
// the success path before lifecycle hooks run.
func (g *opGuard) enter() (func(), error) {
	if !g.busy.CompareAndSwap(false, true) {
		return nil, ErrReentrantCall
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.busy.Store(false) })
	}, nil
}
