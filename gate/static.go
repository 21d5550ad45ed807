package gate

import (
	"errors"
	"sync"
)

// ErrNotAdministrator is returned when a non-administrator attempts an
// administrative gate change.
var ErrNotAdministrator = errors.New("gate: caller is not the administrator")

// compile-time interface check
var _ Gate = (*Static)(nil)

// Static is a Gate with a fixed single administrator, an explicit set of
// mint/burn holders, and an administrator-controlled pause flag.
type Static struct {
	admin string

	mu      sync.RWMutex
	minters map[string]bool
	paused  bool
}

// NewStatic creates a Static gate. The administrator always holds the
// mint/burn capability; additional holders may be listed up front or
// granted later.
func NewStatic(admin string, minters ...string) *Static {
	g := &Static{
		admin:   admin,
		minters: make(map[string]bool, len(minters)+1),
	}
	g.minters[admin] = true
	for _, m := range minters {
		g.minters[m] = true
	}
	return g
}

// CanMintBurn implements Gate.
func (g *Static) CanMintBurn(caller string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.minters[caller]
}

// IsPaused implements Gate.
func (g *Static) IsPaused() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.paused
}

// IsAdministrator implements Gate.
func (g *Static) IsAdministrator(caller string) bool {
	return caller == g.admin
}

// Grant gives an identity the mint/burn capability.
func (g *Static) Grant(caller, holder string) error {
	if caller != g.admin {
		return ErrNotAdministrator
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.minters[holder] = true
	return nil
}

// Revoke removes an identity's mint/burn capability.
func (g *Static) Revoke(caller, holder string) error {
	if caller != g.admin {
		return ErrNotAdministrator
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.minters, holder)
	return nil
}

// Pause suspends all state-changing operations.
func (g *Static) Pause(caller string) error {
	if caller != g.admin {
		return ErrNotAdministrator
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
	return nil
}

// Unpause resumes state-changing operations.
func (g *Static) Unpause(caller string) error {
	if caller != g.admin {
		return ErrNotAdministrator
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = false
	return nil
}
