// Package account defines the per-holder ledger state.
package account

import (
	"time"

	"github.com/xraph/accrual/types"
)

// Account is the stored state for one holder identity. Accounts are created
// implicitly on first settlement touch and never deleted: an account that
// reaches zero balance keeps its stale rate pin and timestamp and is simply
// inert until it is minted to again.
type Account struct {
	types.Entity

	// Address is the caller-supplied holder identity.
	Address string `json:"address"`

	// NominalBalance is the stored balance in minimal units. Only mint,
	// burn, transfer, and settlement adjust it; interest never changes it
	// directly.
	NominalBalance types.Units `json:"nominal_balance"`

	// InterestRate is the rate pinned at the account's most recent mint.
	// Transfers do not touch it.
	InterestRate types.Rate `json:"interest_rate"`

	// LastSettlementTime is when the account was last settled. The zero
	// time means the account has never been touched.
	LastSettlementTime time.Time `json:"last_settlement_time"`
}

// Initialized reports whether the account has been settled at least once.
func (a *Account) Initialized() bool {
	return !a.LastSettlementTime.IsZero()
}

// ElapsedSeconds returns the whole seconds since the last settlement,
// clamped to zero for uninitialized accounts and clocks that ran backwards.
func (a *Account) ElapsedSeconds(now time.Time) uint64 {
	if !a.Initialized() || !now.After(a.LastSettlementTime) {
		return 0
	}
	return uint64(now.Sub(a.LastSettlementTime) / time.Second)
}

// VirtualBalance reconstructs the interest-inclusive balance at the given
// instant without mutating the account.
func (a *Account) VirtualBalance(now time.Time) types.Units {
	return types.VirtualBalance(a.NominalBalance, a.InterestRate, a.ElapsedSeconds(now))
}

// Clone returns a deep copy. Engines always operate on copies so a failed
// operation leaves stored state untouched.
func (a *Account) Clone() *Account {
	cp := *a
	return &cp
}

// GlobalState is the ledger-global bookkeeping row: the authoritative
// nominal supply and the persisted global rate.
type GlobalState struct {
	// TotalNominalSupply is the sum of every account's nominal balance.
	// Settlement is the only path that changes one side without the other,
	// and it changes both atomically.
	TotalNominalSupply types.Units `json:"total_nominal_supply"`

	// GlobalInterestRate is the rate new mints are pinned at.
	GlobalInterestRate types.Rate `json:"global_interest_rate"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy.
func (s *GlobalState) Clone() *GlobalState {
	cp := *s
	return &cp
}

// ListOpts controls account listing.
type ListOpts struct {
	Limit  int
	Offset int
}
