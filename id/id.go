// Package id defines TypeID-based identity types for Accrual journal records.
//
// Every persisted record uses a single ID struct with a prefix that
// identifies the record kind. IDs are K-sortable (UUIDv7-based), globally
// unique, and URL-safe in the format "prefix_suffix". Account identities are
// caller-supplied addresses, not TypeIDs; only records the ledger itself
// creates are identified here.
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record kind encoded in a TypeID.
type Prefix string

// Prefix constants for all Accrual record kinds.
const (
	PrefixSettlement Prefix = "stl"  // Interest settlement record
	PrefixMint       Prefix = "mint" // Mint record
	PrefixBurn       Prefix = "burn" // Burn record
	PrefixTransfer   Prefix = "xfer" // Holder-to-holder transfer record
	PrefixDeposit    Prefix = "dep"  // Vault deposit receipt
	PrefixRedemption Prefix = "rdm"  // Vault redemption receipt
	PrefixRateChange Prefix = "rate" // Global rate change record
	PrefixWithdrawal Prefix = "wdr"  // Excess reserve withdrawal record
	PrefixReward     Prefix = "rwd"  // Reward top-up record
)

// ID is the primary identifier type for all Accrual records.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "stl_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// MustParseWithPrefix is like ParseWithPrefix but panics on error.
func MustParseWithPrefix(s string, expected Prefix) ID {
	parsed, err := ParseWithPrefix(s, expected)
	if err != nil {
		panic(fmt.Sprintf("id: must parse with prefix %q: %v", expected, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// RecordID is a type-safe identifier for journal records of any kind.
type RecordID = ID

// SettlementID is a type-safe identifier for settlement records (prefix: "stl").
type SettlementID = ID

// DepositID is a type-safe identifier for deposit receipts (prefix: "dep").
type DepositID = ID

// RedemptionID is a type-safe identifier for redemption receipts (prefix: "rdm").
type RedemptionID = ID

// AnyID is a type alias that accepts any valid prefix.
type AnyID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewSettlementID generates a new unique settlement record ID.
func NewSettlementID() ID { return New(PrefixSettlement) }

// NewMintID generates a new unique mint record ID.
func NewMintID() ID { return New(PrefixMint) }

// NewBurnID generates a new unique burn record ID.
func NewBurnID() ID { return New(PrefixBurn) }

// NewTransferID generates a new unique transfer record ID.
func NewTransferID() ID { return New(PrefixTransfer) }

// NewDepositID generates a new unique deposit receipt ID.
func NewDepositID() ID { return New(PrefixDeposit) }

// NewRedemptionID generates a new unique redemption receipt ID.
func NewRedemptionID() ID { return New(PrefixRedemption) }

// NewRateChangeID generates a new unique rate change record ID.
func NewRateChangeID() ID { return New(PrefixRateChange) }

// NewWithdrawalID generates a new unique withdrawal record ID.
func NewWithdrawalID() ID { return New(PrefixWithdrawal) }

// NewRewardID generates a new unique reward top-up record ID.
func NewRewardID() ID { return New(PrefixReward) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseSettlementID parses a string and validates the "stl" prefix.
func ParseSettlementID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSettlement) }

// ParseDepositID parses a string and validates the "dep" prefix.
func ParseDepositID(s string) (ID, error) { return ParseWithPrefix(s, PrefixDeposit) }

// ParseRedemptionID parses a string and validates the "rdm" prefix.
func ParseRedemptionID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRedemption) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
