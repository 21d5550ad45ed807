package accrual

import "github.com/xraph/accrual/id"

// ID is the primary identifier type for all accrual journal records.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
