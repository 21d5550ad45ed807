// Package asset defines the base-asset boundary the vault settles against.
//
// The vault never holds the base asset itself; it drives a Treasury, which
// owns the reserve and the holder balances. The interface is defined here so
// the core does not depend on any particular asset backend; callers inject
// a concrete implementation at wiring time.
package asset

import (
	"context"
	"errors"

	"github.com/xraph/accrual/types"
)

// Sentinel errors for treasury operations.
var (
	ErrInsufficientFunds = errors.New("asset: insufficient funds")
	ErrTransferRejected  = errors.New("asset: transfer rejected")
)

// Treasury is the vault's view of the base asset.
type Treasury interface {
	// Balance returns the reserve: the vault's own base-asset holdings.
	Balance(ctx context.Context) (types.Units, error)

	// Collect moves base asset from a holder into the reserve. Used by
	// deposits and reward top-ups.
	Collect(ctx context.Context, from string, amount types.Units) error

	// Pay moves base asset from the reserve to a holder. Paying can hand
	// control to externally-controlled code before returning, which is why
	// the vault finishes all ledger bookkeeping before calling it.
	Pay(ctx context.Context, to string, amount types.Units) error
}
