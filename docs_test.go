package accrual_test

import (
	"context"
	"log/slog"
	"testing"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/asset"
	"github.com/xraph/accrual/gate"
	"github.com/xraph/accrual/store/memory"
)

// TestDocumentationExamples verifies that the examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize the ledger
		l := accrual.New(store,
			accrual.WithLogger(slog.Default()),
			accrual.WithInitialRate(60_000_000_000),
			accrual.WithGate(gate.NewStatic("admin", "minter")),
		)

		// Start the engine
		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		// Mint units to a holder
		if err := l.Mint(ctx, "minter", "alice", accrual.NewUnits(1_000_000)); err != nil {
			t.Fatal(err)
		}

		// Read the interest-inclusive balance
		balance, err := l.BalanceOf(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if balance.IsZero() {
			t.Fatal("expected nonzero balance after mint")
		}
	})

	// Test the vault example
	t.Run("VaultExample", func(t *testing.T) {
		store := memory.New()
		l := accrual.New(store, gateOption())

		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		bank := asset.NewMemoryBank()
		bank.Credit("alice", accrual.NewUnits(500))
		v := accrual.NewVault(l, bank)

		if _, err := v.Deposit(ctx, "alice", accrual.NewUnits(500)); err != nil {
			t.Fatal(err)
		}
		if _, err := v.Redeem(ctx, "alice", accrual.RedeemAll); err != nil {
			t.Fatal(err)
		}
	})
}

func gateOption() accrual.Option {
	return accrual.WithGate(gate.Open{})
}
