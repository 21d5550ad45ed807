// Package accrual provides an interest-accruing balance ledger with a 1:1
// collateral vault for Go applications.
//
// Accrual is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Lazy linear interest: balances grow continuously from a per-holder
//     rate with no background workers, reconstructed on read and
//     materialized on write
//   - Per-holder rate pinning: each mint pins the holder to the global rate
//     then in force; rate changes never apply retroactively
//   - A monotonically non-increasing global rate under administrator control
//   - A collateral vault exchanging a base asset for ledger units 1:1, with
//     a solvency-gated excess withdrawal path
//   - An append-only journal of every state change, queryable per account
//   - Pluggable storage (memory, PostgreSQL, SQLite, MongoDB)
//   - Lifecycle plugins for audit trails and metrics
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/accrual"
//	    "github.com/xraph/accrual/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create the ledger
//	l := accrual.New(store,
//	    accrual.WithInitialRate(60_000_000_000), // 6e10, ~0.5% over 30 days
//	    accrual.WithGate(gate.NewStatic("admin", "minter")),
//	)
//
//	// Start it (runs migrations, loads persisted state)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// Mint, let interest accrue, and read the interest-inclusive balance:
//
//	err = l.Mint(ctx, "minter", "alice", accrual.NewUnits(1_000_000))
//	balance, err := l.BalanceOf(ctx, "alice") // grows every second
//
// # The Vault
//
// Wrap the ledger in a vault to exchange a base asset for units 1:1:
//
//	bank := asset.NewMemoryBank()
//	v := accrual.NewVault(l, bank)
//
//	receipt, err := v.Deposit(ctx, "alice", accrual.NewUnits(500))
//	receipt, err = v.Redeem(ctx, "alice", accrual.RedeemAll)
//
// The vault tracks its outstanding liability so the administrator can top
// up the reserve to back accrued interest (DepositRewards) and withdraw
// only genuine surplus (WithdrawExcess).
//
// # Plugins
//
// Register plugins to observe every state change:
//
//	l := accrual.New(store,
//	    accrual.WithPlugin(observability.NewMetricsExtension(factory)),
//	    accrual.WithPlugin(audithook.New(recorder)),
//	)
package accrual
