package asset

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/accrual/types"
)

// compile-time interface check
var _ Treasury = (*MemoryBank)(nil)

// PayHook is invoked by MemoryBank.Pay after funds leave the reserve and
// before the recipient is credited. It stands in for the recipient-side
// code a real asset transfer can execute; returning an error fails the
// payment.
type PayHook func(ctx context.Context, to string, amount types.Units) error

// MemoryBank is an in-memory Treasury for tests, examples, and simulations.
type MemoryBank struct {
	mu      sync.Mutex
	reserve types.Units
	holders map[string]types.Units
	payHook PayHook
}

// NewMemoryBank creates an empty MemoryBank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{holders: make(map[string]types.Units)}
}

// SetPayHook installs a hook run on every Pay.
func (b *MemoryBank) SetPayHook(h PayHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payHook = h
}

// Credit grants a holder base asset out of thin air. Test fixture.
func (b *MemoryBank) Credit(addr string, amount types.Units) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.holders[addr] = b.holders[addr].Add(amount)
}

// HolderBalance returns a holder's base-asset balance.
func (b *MemoryBank) HolderBalance(addr string) types.Units {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.holders[addr]
}

// Balance implements Treasury.
func (b *MemoryBank) Balance(_ context.Context) (types.Units, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reserve, nil
}

// Collect implements Treasury.
func (b *MemoryBank) Collect(_ context.Context, from string, amount types.Units) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	have := b.holders[from]
	if have.Less(amount) {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientFunds, from, have, amount)
	}
	b.holders[from] = have.Sub(amount)
	b.reserve = b.reserve.Add(amount)
	return nil
}

// Pay implements Treasury. The hook runs outside the bank lock so hooked
// code may call back into the bank; a hook error returns the funds to the
// reserve and fails the payment.
func (b *MemoryBank) Pay(ctx context.Context, to string, amount types.Units) error {
	b.mu.Lock()
	if b.reserve.Less(amount) {
		have := b.reserve
		b.mu.Unlock()
		return fmt.Errorf("%w: reserve has %s, need %s", ErrInsufficientFunds, have, amount)
	}
	b.reserve = b.reserve.Sub(amount)
	hook := b.payHook
	b.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, to, amount); err != nil {
			b.mu.Lock()
			b.reserve = b.reserve.Add(amount)
			b.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrTransferRejected, err)
		}
	}

	b.mu.Lock()
	b.holders[to] = b.holders[to].Add(amount)
	b.mu.Unlock()
	return nil
}
