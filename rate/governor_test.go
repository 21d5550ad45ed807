package rate

import (
	"errors"
	"testing"

	"github.com/xraph/accrual/types"
)

func TestNewGovernorBounds(t *testing.T) {
	if _, err := NewGovernor(MaxRate + 1); !errors.Is(err, ErrRateOutOfBounds) {
		t.Errorf("expected ErrRateOutOfBounds, got %v", err)
	}
	g, err := NewGovernor(60_000_000_000)
	if err != nil {
		t.Fatalf("NewGovernor: %v", err)
	}
	if g.Rate() != 60_000_000_000 {
		t.Errorf("Rate: got %d, want 60000000000", g.Rate())
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		initial types.Rate
		set     types.Rate
		wantErr error
	}{
		{"Decrease", 100, 50, nil},
		{"Unchanged", 100, 100, nil},
		{"ToZero", 100, MinRate, nil},
		{"Increase", 100, 101, ErrRateIncrease},
		{"AboveMax", MaxRate, MaxRate + 1, ErrRateOutOfBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGovernor(tt.initial)
			if err != nil {
				t.Fatalf("NewGovernor: %v", err)
			}

			old, err := g.Set(tt.set)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if g.Rate() != tt.initial {
					t.Errorf("rejected Set mutated rate: %d", g.Rate())
				}
				return
			}
			if err != nil {
				t.Fatalf("Set: %v", err)
			}
			if old != tt.initial {
				t.Errorf("old rate: got %d, want %d", old, tt.initial)
			}
			if g.Rate() != tt.set {
				t.Errorf("new rate: got %d, want %d", g.Rate(), tt.set)
			}
		})
	}
}

func TestMonotonicAcrossSequence(t *testing.T) {
	g, err := NewGovernor(1000)
	if err != nil {
		t.Fatalf("NewGovernor: %v", err)
	}

	high := g.Rate()
	for _, r := range []types.Rate{900, 900, 400, 50, 0} {
		if _, err := g.Set(r); err != nil {
			t.Fatalf("Set(%d): %v", r, err)
		}
		if g.Rate() > high {
			t.Fatalf("rate rose above previously accepted value: %d > %d", g.Rate(), high)
		}
		high = g.Rate()
	}

	// Once at zero, any positive rate is an increase.
	if _, err := g.Set(1); !errors.Is(err, ErrRateIncrease) {
		t.Errorf("expected ErrRateIncrease, got %v", err)
	}
}

func TestAdopt(t *testing.T) {
	g, err := NewGovernor(10)
	if err != nil {
		t.Fatalf("NewGovernor: %v", err)
	}

	// Adopt may move the rate up: it restores persisted state, it is not a
	// lifecycle rate change.
	if err := g.Adopt(500); err != nil {
		t.Fatalf("Adopt: %v", err)
	}
	if g.Rate() != 500 {
		t.Errorf("Rate after Adopt: got %d, want 500", g.Rate())
	}

	if err := g.Adopt(MaxRate + 1); !errors.Is(err, ErrRateOutOfBounds) {
		t.Errorf("expected ErrRateOutOfBounds, got %v", err)
	}
}
