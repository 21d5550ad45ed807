// Package journal defines the append-only record stream the ledger and
// vault emit for every state change. Records are the durable counterpart of
// the in-process plugin hooks: observability and tests assert against them.
package journal

import (
	"time"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/types"
)

// Kind discriminates journal record types.
type Kind string

// Record kinds, one per observable state change.
const (
	KindRateChanged      Kind = "rate_changed"
	KindInterestSettled  Kind = "interest_settled"
	KindMinted           Kind = "minted"
	KindBurned           Kind = "burned"
	KindTransferred      Kind = "transferred"
	KindDeposited        Kind = "deposited"
	KindRedeemed         Kind = "redeemed"
	KindRewardsDeposited Kind = "rewards_deposited"
	KindExcessWithdrawn  Kind = "excess_withdrawn"
)

// Record is one journal entry. Fields beyond ID, Kind, and Timestamp are
// populated per kind; a field that does not apply to a kind stays zero.
type Record struct {
	ID   id.RecordID `json:"id"`
	Kind Kind        `json:"kind"`

	// Account is the primary holder the record concerns: the settled,
	// minted, burned, depositing, or redeeming account.
	Account string `json:"account,omitempty"`

	// Counterparty is the receiving account on transfers.
	Counterparty string `json:"counterparty,omitempty"`

	// Caller is the identity that invoked the operation.
	Caller string `json:"caller,omitempty"`

	// Amount is the ledger-unit quantity moved, minted, burned, or settled.
	Amount types.Units `json:"amount"`

	// NewBalance is the post-operation nominal balance of Account, set on
	// settlement records so supply growth is attributable.
	NewBalance types.Units `json:"new_balance"`

	// AssetAmount is the base-asset leg of vault operations.
	AssetAmount types.Units `json:"asset_amount"`

	// OldRate and NewRate are set on rate change records.
	OldRate types.Rate `json:"old_rate,omitempty"`
	NewRate types.Rate `json:"new_rate,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// ──────────────────────────────────────────────────
// Record constructors
// ──────────────────────────────────────────────────

// NewRateChanged records a global rate change.
func NewRateChanged(old, new types.Rate, who string, when time.Time) *Record {
	return &Record{
		ID:        id.NewRateChangeID(),
		Kind:      KindRateChanged,
		Caller:    who,
		OldRate:   old,
		NewRate:   new,
		Timestamp: when,
	}
}

// NewInterestSettled records interest materialized into an account.
func NewInterestSettled(account string, amount, newBalance types.Units, when time.Time) *Record {
	return &Record{
		ID:         id.NewSettlementID(),
		Kind:       KindInterestSettled,
		Account:    account,
		Amount:     amount,
		NewBalance: newBalance,
		Timestamp:  when,
	}
}

// NewMinted records nominal units minted to an account.
func NewMinted(to string, amount types.Units, who string, when time.Time) *Record {
	return &Record{
		ID:        id.NewMintID(),
		Kind:      KindMinted,
		Account:   to,
		Caller:    who,
		Amount:    amount,
		Timestamp: when,
	}
}

// NewBurned records nominal units burned from an account.
func NewBurned(from string, amount types.Units, who string, when time.Time) *Record {
	return &Record{
		ID:        id.NewBurnID(),
		Kind:      KindBurned,
		Account:   from,
		Caller:    who,
		Amount:    amount,
		Timestamp: when,
	}
}

// NewTransferred records a holder-to-holder move of nominal units.
func NewTransferred(from, to string, amount types.Units, when time.Time) *Record {
	return &Record{
		ID:           id.NewTransferID(),
		Kind:         KindTransferred,
		Account:      from,
		Counterparty: to,
		Caller:       from,
		Amount:       amount,
		Timestamp:    when,
	}
}

// NewDeposited records a vault deposit: assetIn base units exchanged 1:1
// for unitsOut ledger units.
func NewDeposited(user string, assetIn, unitsOut types.Units, when time.Time) *Record {
	return &Record{
		ID:          id.NewDepositID(),
		Kind:        KindDeposited,
		Account:     user,
		Caller:      user,
		Amount:      unitsOut,
		AssetAmount: assetIn,
		Timestamp:   when,
	}
}

// NewRedeemed records a vault redemption: unitsIn ledger units burned for
// assetOut base units.
func NewRedeemed(user string, unitsIn, assetOut types.Units, when time.Time) *Record {
	return &Record{
		ID:          id.NewRedemptionID(),
		Kind:        KindRedeemed,
		Account:     user,
		Caller:      user,
		Amount:      unitsIn,
		AssetAmount: assetOut,
		Timestamp:   when,
	}
}

// NewRewardsDeposited records an administrator reserve top-up.
func NewRewardsDeposited(who string, amount types.Units, when time.Time) *Record {
	return &Record{
		ID:          id.NewRewardID(),
		Kind:        KindRewardsDeposited,
		Caller:      who,
		AssetAmount: amount,
		Timestamp:   when,
	}
}

// NewExcessWithdrawn records an administrator withdrawal of surplus reserve.
func NewExcessWithdrawn(who string, amount types.Units, when time.Time) *Record {
	return &Record{
		ID:          id.NewWithdrawalID(),
		Kind:        KindExcessWithdrawn,
		Caller:      who,
		AssetAmount: amount,
		Timestamp:   when,
	}
}
