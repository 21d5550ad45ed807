// Package memory provides an in-memory Store for tests and single-process
// deployments. State is lost on process exit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/vault"
)

type Store struct {
	mu sync.RWMutex

	// Account storage, keyed by address
	accounts map[string]*account.Account

	// Singleton bookkeeping rows, nil until first written
	ledger *account.GlobalState
	vault  *vault.State

	// Append-only journal
	records []*journal.Record

	closed bool
}

func New() *Store {
	return &Store{
		accounts: make(map[string]*account.Account),
	}
}

// Account Store implementation

func (s *Store) GetAccount(_ context.Context, address string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[address]; ok {
		return a.Clone(), nil
	}
	return nil, accrual.ErrAccountNotFound
}

func (s *Store) ListAccounts(_ context.Context, opts account.ListOpts) ([]*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addresses := make([]string, 0, len(s.accounts))
	for addr := range s.accounts {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	result := make([]*account.Account, 0, len(addresses))
	for i, addr := range addresses {
		if opts.Offset > 0 && i < opts.Offset {
			continue
		}
		if opts.Limit > 0 && len(result) >= opts.Limit {
			break
		}
		result = append(result, s.accounts[addr].Clone())
	}
	return result, nil
}

func (s *Store) GetGlobalState(_ context.Context) (*account.GlobalState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.ledger == nil {
		return nil, accrual.ErrNotFound
	}
	return s.ledger.Clone(), nil
}

// Vault Store implementation

func (s *Store) GetVaultState(_ context.Context) (*vault.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vault == nil {
		return nil, accrual.ErrNotFound
	}
	return s.vault.Clone(), nil
}

// Journal Store implementation

func (s *Store) QueryRecords(_ context.Context, opts journal.QueryOpts) ([]*journal.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*journal.Record
	for _, r := range s.records {
		if opts.Kind != "" && r.Kind != opts.Kind {
			continue
		}
		if opts.Account != "" && r.Account != opts.Account && r.Counterparty != opts.Account {
			continue
		}
		if !opts.Start.IsZero() && r.Timestamp.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && r.Timestamp.After(opts.End) {
			continue
		}
		matched = append(matched, r)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}

	result := make([]*journal.Record, len(matched))
	for i, r := range matched {
		cp := *r
		result[i] = &cp
	}
	return result, nil
}

func (s *Store) PurgeRecords(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*journal.Record
	var purged int64
	for _, r := range s.records {
		if r.Timestamp.Before(before) {
			purged++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return purged, nil
}

// Apply commits the change set under a single lock, so readers never see a
// partial write.
func (s *Store) Apply(_ context.Context, cs *store.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return accrual.ErrStoreClosed
	}

	for _, a := range cs.Accounts {
		s.accounts[a.Address] = a.Clone()
	}
	if cs.Ledger != nil {
		s.ledger = cs.Ledger.Clone()
	}
	if cs.Vault != nil {
		s.vault = cs.Vault.Clone()
	}
	for _, r := range cs.Records {
		cp := *r
		s.records = append(s.records, &cp)
	}
	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return accrual.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ store.Store = (*Store)(nil)
