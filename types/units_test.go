package types

import (
	"encoding/json"
	"testing"
)

func TestUnitsConstructors(t *testing.T) {
	tests := []struct {
		name    string
		units   Units
		display string
	}{
		{"Zero", ZeroUnits(), "0"},
		{"Small", NewUnits(42), "42"},
		{"Large", NewUnits(18_446_744_073_709_551_615), "18446744073709551615"},
		{"Parsed", MustUnits("340282366920938463463374607431768211456"), "340282366920938463463374607431768211456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.units.String() != tt.display {
				t.Errorf("String: got %s, want %s", tt.units.String(), tt.display)
			}
		})
	}
}

func TestUnitsFromStringInvalid(t *testing.T) {
	for _, s := range []string{"", "-1", "1.5", "0x10", "abc"} {
		if _, err := UnitsFromString(s); err == nil {
			t.Errorf("UnitsFromString(%q): expected error", s)
		}
	}
}

func TestUnitsArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Units
		expected Units
	}{
		{"Add", func() Units { return NewUnits(100).Add(NewUnits(200)) }, NewUnits(300)},
		{"Sub", func() Units { return NewUnits(500).Sub(NewUnits(200)) }, NewUnits(300)},
		{"SubToZero", func() Units { return NewUnits(500).Sub(NewUnits(500)) }, ZeroUnits()},
		{"MinLeft", func() Units { return NewUnits(3).Min(NewUnits(7)) }, NewUnits(3)},
		{"MinRight", func() Units { return NewUnits(9).Min(NewUnits(7)) }, NewUnits(7)},
		{"Chained", func() Units {
			return NewUnits(1000).Add(NewUnits(500)).Sub(NewUnits(250))
		}, NewUnits(1250)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestUnitsSubUnderflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for underflow")
		}
	}()

	_ = NewUnits(1).Sub(NewUnits(2))
}

func TestUnitsComparisons(t *testing.T) {
	a, b := NewUnits(10), NewUnits(20)

	if !a.Less(b) || b.Less(a) {
		t.Error("Less ordering wrong")
	}
	if a.Cmp(b) != -1 || b.Cmp(a) != 1 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering wrong")
	}
	if !ZeroUnits().IsZero() || a.IsZero() {
		t.Error("IsZero wrong")
	}
	if MaxUnits().Less(a) {
		t.Error("MaxUnits must compare above any real balance")
	}
}

func TestUnitsJSONRoundTrip(t *testing.T) {
	original := MustUnits("115792089237316195423570985008687907853269984665640564039457")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Units
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.Equal(original) {
		t.Errorf("Round trip: got %v, want %v", decoded, original)
	}
}

func TestVirtualBalance(t *testing.T) {
	tests := []struct {
		name     string
		nominal  Units
		rate     Rate
		elapsed  uint64
		expected Units
	}{
		{"ZeroNominal", ZeroUnits(), 60_000_000_000, 3600, ZeroUnits()},
		{"ZeroRate", NewUnits(1000), 0, 3600, NewUnits(1000)},
		{"ZeroElapsed", NewUnits(1000), 60_000_000_000, 0, NewUnits(1000)},
		// 10e18 units at 6e10/s over 30 days: 10e18 * (1e18 + 6e10*2592000) / 1e18
		// = 10e18 + 10e18*0.155520 = 11.5552e18.
		{
			"ThirtyDays",
			MustUnits("10000000000000000000"),
			60_000_000_000,
			2_592_000,
			MustUnits("11555200000000000000"),
		},
		// One unit at a rate too small to produce a whole minimal unit
		// rounds down to no growth.
		{"RoundsDown", NewUnits(1), 1, 1, NewUnits(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := VirtualBalance(tt.nominal, tt.rate, tt.elapsed)
			if !got.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestVirtualBalanceNonDecreasing(t *testing.T) {
	nominal := MustUnits("123456789000000000000")
	const r = Rate(60_000_000_000)

	prev := nominal
	for _, elapsed := range []uint64{1, 60, 3600, 86_400, 2_592_000, 31_536_000} {
		v := VirtualBalance(nominal, r, elapsed)
		if v.Less(prev) {
			t.Fatalf("balance decreased at elapsed=%d: %v < %v", elapsed, v, prev)
		}
		if v.Less(nominal) {
			t.Fatalf("virtual balance below nominal at elapsed=%d", elapsed)
		}
		prev = v
	}
}
