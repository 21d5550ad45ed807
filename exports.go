package accrual

import "github.com/xraph/accrual/types"

// Re-export common types for convenience so users don't have to import types package.

// Units is re-exported from types package.
type Units = types.Units

// Rate is re-exported from types package.
type Rate = types.Rate

// Entity is re-exported from types package.
type Entity = types.Entity

// Re-export Units constructors
var (
	NewUnits        = types.NewUnits
	ZeroUnits       = types.ZeroUnits
	UnitsFromString = types.UnitsFromString
	MustUnits       = types.MustUnits
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
