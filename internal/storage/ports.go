// Package storage persists the record collection. Every backend stores the
// whole collection as one snapshot, so Save is all-or-nothing.
package storage

import (
	"context"

	"spendlens/internal/core"
)

// Store is the persistence collaborator behind the ledger.
type Store interface {
	// Load returns the stored records in insertion order. A missing source
	// yields an empty slice, not an error.
	Load(ctx context.Context) ([]core.Record, error)
	// Save replaces the stored collection with records.
	Save(ctx context.Context, records []core.Record) error
}

// Snapshotter is implemented by stores that record each Save.
type Snapshotter interface {
	LastSnapshot(ctx context.Context) (Snapshot, bool, error)
}

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}
