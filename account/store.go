package account

import "context"

// Store is the account-facing slice of the storage interface.
type Store interface {
	// GetAccount returns the stored account for an address.
	// Returns accrual.ErrAccountNotFound if the address was never touched.
	GetAccount(ctx context.Context, address string) (*Account, error)

	// ListAccounts returns every known account, ordered by address.
	ListAccounts(ctx context.Context, opts ListOpts) ([]*Account, error)

	// GetGlobalState returns the ledger-global bookkeeping row.
	// Returns accrual.ErrNotFound if the ledger has never been written.
	GetGlobalState(ctx context.Context) (*GlobalState, error)
}
