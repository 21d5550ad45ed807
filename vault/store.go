package vault

import "context"

// Store is the vault-facing slice of the storage interface.
type Store interface {
	// GetVaultState returns the vault bookkeeping row.
	// Returns accrual.ErrNotFound if the vault has never been written.
	GetVaultState(ctx context.Context) (*State, error)
}
