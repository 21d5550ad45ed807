// Package vault defines the collateral vault's persisted state and the
// receipts its operations return.
package vault

import (
	"time"

	"github.com/google/uuid"

	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/types"
)

// RedeemAll is the redeem-everything sentinel. Passing it to Redeem
// resolves the requested amount to the caller's current virtual balance
// before any other check runs.
var RedeemAll = types.MaxUnits()

// State is the vault's persisted bookkeeping row.
//
// TotalLiability tracks cumulative principal deposited minus redeemed,
// floored at zero. It deliberately excludes unsettled interest, so it is an
// approximation of the true debt: the reserve must be actively re-funded
// via reward deposits to cover the interest-inclusive balances the ledger
// reports at redemption time.
type State struct {
	TotalLiability types.Units `json:"total_liability"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	cp := *s
	return &cp
}

// DepositReceipt is returned by a successful deposit.
type DepositReceipt struct {
	ID   id.DepositID `json:"id"`
	User string       `json:"user"`

	// AssetIn is the base-asset amount collected; UnitsOut is the ledger
	// units minted. The exchange rate is fixed at 1:1, so they are equal.
	AssetIn  types.Units `json:"asset_in"`
	UnitsOut types.Units `json:"units_out"`

	// IdempotencyKey lets downstream payment reconciliation deduplicate
	// receipts that were delivered more than once.
	IdempotencyKey uuid.UUID `json:"idempotency_key"`

	Timestamp time.Time `json:"timestamp"`
}

// RedemptionReceipt is returned by a successful redemption.
type RedemptionReceipt struct {
	ID   id.RedemptionID `json:"id"`
	User string          `json:"user"`

	UnitsIn  types.Units `json:"units_in"`
	AssetOut types.Units `json:"asset_out"`

	IdempotencyKey uuid.UUID `json:"idempotency_key"`

	Timestamp time.Time `json:"timestamp"`
}
