package asset

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/accrual/types"
)

func TestCollectMovesHolderToReserve(t *testing.T) {
	b := NewMemoryBank()
	ctx := context.Background()

	b.Credit("alice", types.NewUnits(100))
	if err := b.Collect(ctx, "alice", types.NewUnits(60)); err != nil {
		t.Fatalf("collect: %v", err)
	}

	reserve, _ := b.Balance(ctx)
	if !reserve.Equal(types.NewUnits(60)) {
		t.Errorf("reserve = %s, want 60", reserve)
	}
	if got := b.HolderBalance("alice"); !got.Equal(types.NewUnits(40)) {
		t.Errorf("alice = %s, want 40", got)
	}
}

func TestCollectInsufficient(t *testing.T) {
	b := NewMemoryBank()
	err := b.Collect(context.Background(), "alice", types.NewUnits(1))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestPayMovesReserveToHolder(t *testing.T) {
	b := NewMemoryBank()
	ctx := context.Background()

	b.Credit("alice", types.NewUnits(100))
	if err := b.Collect(ctx, "alice", types.NewUnits(100)); err != nil {
		t.Fatal(err)
	}
	if err := b.Pay(ctx, "bob", types.NewUnits(30)); err != nil {
		t.Fatalf("pay: %v", err)
	}

	if got := b.HolderBalance("bob"); !got.Equal(types.NewUnits(30)) {
		t.Errorf("bob = %s, want 30", got)
	}
	reserve, _ := b.Balance(ctx)
	if !reserve.Equal(types.NewUnits(70)) {
		t.Errorf("reserve = %s, want 70", reserve)
	}
}

func TestPayHookFailureRefundsReserve(t *testing.T) {
	b := NewMemoryBank()
	ctx := context.Background()

	b.Credit("alice", types.NewUnits(50))
	if err := b.Collect(ctx, "alice", types.NewUnits(50)); err != nil {
		t.Fatal(err)
	}
	b.SetPayHook(func(context.Context, string, types.Units) error {
		return errors.New("rejected")
	})

	err := b.Pay(ctx, "bob", types.NewUnits(50))
	if !errors.Is(err, ErrTransferRejected) {
		t.Fatalf("expected ErrTransferRejected, got %v", err)
	}

	reserve, _ := b.Balance(ctx)
	if !reserve.Equal(types.NewUnits(50)) {
		t.Errorf("reserve = %s, want refund to 50", reserve)
	}
	if got := b.HolderBalance("bob"); !got.IsZero() {
		t.Errorf("bob = %s, want 0", got)
	}
}
