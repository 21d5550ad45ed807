// Package plugin provides an extensible plugin system for the accrual
// engine. Plugins can hook into ledger and vault events to extend
// functionality.
package plugin

import (
	"context"

	"github.com/xraph/accrual/types"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnRateChanged is called after the global interest rate changes.
type OnRateChanged interface {
	Plugin
	OnRateChanged(ctx context.Context, oldRate, newRate types.Rate, caller string) error
}

// OnInterestSettled is called after accrued interest is materialized into
// an account's nominal balance.
type OnInterestSettled interface {
	Plugin
	OnInterestSettled(ctx context.Context, account string, interest, newBalance types.Units) error
}

// OnMinted is called after units are minted to an account.
type OnMinted interface {
	Plugin
	OnMinted(ctx context.Context, to string, amount types.Units, caller string) error
}

// OnBurned is called after units are burned from an account.
type OnBurned interface {
	Plugin
	OnBurned(ctx context.Context, from string, amount types.Units, caller string) error
}

// OnTransferred is called after a holder-to-holder transfer.
type OnTransferred interface {
	Plugin
	OnTransferred(ctx context.Context, from, to string, amount types.Units) error
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposited is called after a vault deposit completes.
type OnDeposited interface {
	Plugin
	OnDeposited(ctx context.Context, user string, assetIn, unitsOut types.Units) error
}

// OnRedeemed is called after a vault redemption completes, payout included.
type OnRedeemed interface {
	Plugin
	OnRedeemed(ctx context.Context, user string, unitsIn, assetOut types.Units) error
}

// OnRewardsDeposited is called after an administrator reserve top-up.
type OnRewardsDeposited interface {
	Plugin
	OnRewardsDeposited(ctx context.Context, caller string, amount types.Units) error
}

// OnExcessWithdrawn is called after an administrator withdraws surplus
// reserve.
type OnExcessWithdrawn interface {
	Plugin
	OnExcessWithdrawn(ctx context.Context, caller string, amount types.Units) error
}
