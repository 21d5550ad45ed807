// Package types provides common types used across Accrual.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// PrecisionExp is the number of decimal places in the fixed-point scale.
// All rates and multipliers are expressed at 10^PrecisionExp precision.
const PrecisionExp = 18

// precision is 10^18 as a 256-bit integer. Never mutate in place.
var precision = uint256.MustFromDecimal("1000000000000000000")

// Units represents a quantity of ledger units in minimal denominations.
// All arithmetic is 256-bit integer-only, no floating point. The wide
// width exists because the interest multiplier math multiplies a balance
// by a 10^18-scale fixed-point factor before dividing it back down.
//
// Units is a value type; arithmetic methods return new values and never
// mutate the receiver.
type Units struct {
	v uint256.Int
}

// NewUnits creates a Units value from a uint64 quantity.
func NewUnits(n uint64) Units {
	var u Units
	u.v.SetUint64(n)
	return u
}

// ZeroUnits returns the zero quantity.
func ZeroUnits() Units { return Units{} }

// MaxUnits returns the largest representable quantity. It is used as the
// redeem-everything sentinel and never appears as a real balance.
func MaxUnits() Units {
	var u Units
	u.v.SetAllOne()
	return u
}

// UnitsFromString parses a base-10 quantity.
func UnitsFromString(s string) (Units, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Units{}, fmt.Errorf("types: parse units %q: %w", s, err)
	}
	return Units{v: *v}, nil
}

// MustUnits is like UnitsFromString but panics on error.
// Use for hardcoded values in tests and examples.
func MustUnits(s string) Units {
	u, err := UnitsFromString(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Arithmetic operations

// Add returns u + other.
func (u Units) Add(other Units) Units {
	var out Units
	out.v.Add(&u.v, &other.v)
	return out
}

// Sub returns u - other. Panics on underflow; callers must check
// sufficiency first, which every ledger operation does.
func (u Units) Sub(other Units) Units {
	if u.v.Lt(&other.v) {
		panic("types: units underflow")
	}
	var out Units
	out.v.Sub(&u.v, &other.v)
	return out
}

// Min returns the smaller of u and other.
func (u Units) Min(other Units) Units {
	if u.v.Lt(&other.v) {
		return u
	}
	return other
}

// Comparisons

// Cmp returns -1, 0, or 1 comparing u against other.
func (u Units) Cmp(other Units) int { return u.v.Cmp(&other.v) }

// Equal reports whether u == other.
func (u Units) Equal(other Units) bool { return u.v.Eq(&other.v) }

// Less reports whether u < other.
func (u Units) Less(other Units) bool { return u.v.Lt(&other.v) }

// IsZero reports whether u is zero.
func (u Units) IsZero() bool { return u.v.IsZero() }

// Uint64 returns u as a uint64, saturating at math.MaxUint64.
func (u Units) Uint64() uint64 {
	if !u.v.IsUint64() {
		return ^uint64(0)
	}
	return u.v.Uint64()
}

// Float64 returns an approximation of u. Only metrics should use it;
// balance math stays integer-exact.
func (u Units) Float64() float64 { return u.v.Float64() }

// String returns the base-10 representation.
func (u Units) String() string { return u.v.Dec() }

// MarshalJSON encodes the quantity as a base-10 JSON string so values
// above 2^53 survive JavaScript consumers.
func (u Units) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.v.Dec())
}

// UnmarshalJSON decodes a base-10 JSON string.
func (u *Units) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("types: unmarshal units: %w", err)
	}
	parsed, err := UnitsFromString(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Rate is a per-second linear interest rate in fixed-point form at
// 10^PrecisionExp precision. A rate of 6e10 grows a balance by
// 6e10/1e18 of itself every second.
type Rate uint64

// String returns the base-10 representation of the raw fixed-point value.
func (r Rate) String() string { return fmt.Sprintf("%d", r) }

// Multiplier returns the fixed-point growth factor for a rate held over
// elapsed seconds: precision + rate*elapsed. The factor is always >= 1.0
// in fixed-point terms, so accrual is strictly non-negative.
func Multiplier(r Rate, elapsedSeconds uint64) *uint256.Int {
	m := new(uint256.Int).Mul(
		uint256.NewInt(uint64(r)),
		uint256.NewInt(elapsedSeconds),
	)
	return m.Add(m, precision)
}

// VirtualBalance reconstructs the interest-inclusive balance from a stored
// nominal balance: nominal * multiplier / precision, rounded down. A zero
// nominal balance, zero rate, or zero elapsed time yields the nominal
// balance unchanged.
//
// Interest is linear, not compounding: the approximation error grows with
// elapsed time times rate, but it is exact to reconstruct and cheap to
// audit, and settlement resets the window on every balance-changing
// operation.
func VirtualBalance(nominal Units, r Rate, elapsedSeconds uint64) Units {
	if nominal.IsZero() || r == 0 || elapsedSeconds == 0 {
		return nominal
	}
	m := Multiplier(r, elapsedSeconds)
	var out Units
	out.v.Mul(&nominal.v, m)
	out.v.Div(&out.v, precision)
	return out
}
