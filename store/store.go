// Package store defines the unified storage interface for the accrual
// engine and the ChangeSet that carries an operation's writes.
package store

import (
	"context"
	"time"

	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/vault"
)

// Store is the unified storage interface for all accrual entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Account methods
	GetAccount(ctx context.Context, address string) (*account.Account, error)
	ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error)
	GetGlobalState(ctx context.Context) (*account.GlobalState, error)

	// Vault methods
	GetVaultState(ctx context.Context) (*vault.State, error)

	// Journal methods
	QueryRecords(ctx context.Context, opts journal.QueryOpts) ([]*journal.Record, error)
	PurgeRecords(ctx context.Context, before time.Time) (int64, error)

	// Apply commits every write in the ChangeSet atomically: all of it
	// becomes visible or none of it does. This is the only write path.
	Apply(ctx context.Context, cs *ChangeSet) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// ChangeSet is the complete write set of one engine operation. Nil fields
// and empty slices are skipped; accounts are upserted by address.
type ChangeSet struct {
	Accounts []*account.Account
	Ledger   *account.GlobalState
	Vault    *vault.State
	Records  []*journal.Record
}

// Empty reports whether the change set carries no writes.
func (cs *ChangeSet) Empty() bool {
	return len(cs.Accounts) == 0 && cs.Ledger == nil && cs.Vault == nil && len(cs.Records) == 0
}
