package journal

import (
	"context"
	"time"
)

// Store is the journal-facing slice of the storage interface. Records are
// appended only through a storage ChangeSet so they commit atomically with
// the state change they describe.
type Store interface {
	// QueryRecords returns records matching opts, oldest first.
	QueryRecords(ctx context.Context, opts QueryOpts) ([]*Record, error)

	// PurgeRecords deletes records older than the given time and returns
	// the number deleted.
	PurgeRecords(ctx context.Context, before time.Time) (int64, error)
}

// QueryOpts filters journal queries. Zero fields match everything.
type QueryOpts struct {
	Kind    Kind
	Account string
	Start   time.Time
	End     time.Time
	Limit   int
	Offset  int
}
