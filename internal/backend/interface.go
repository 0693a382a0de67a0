package backend

import (
	"context"

	"spendlens/internal/storage"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result is an opened backend.
type Result struct {
	Type  Type
	Store storage.Store
	// Ready reports whether the backend can serve. Nil means always ready.
	Ready func(ctx context.Context) error
	// LastSave reports the most recent Save. Nil when the store keeps no record.
	LastSave func(ctx context.Context) (storage.Snapshot, bool, error)
	Cleanup  CleanupFunc
}

// Ping runs the readiness check when the store offers one.
func (r *Result) Ping(ctx context.Context) error {
	if r.Ready == nil {
		return nil
	}
	return r.Ready(ctx)
}

// Close releases whatever the backend holds open.
func (r *Result) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Config holds what the factory needs to open a backend.
type Config struct {
	Type Type

	// json
	JSONDataPath string

	// sqlite
	SQLiteDBPath string

	// sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// Type names a storage backend.
type Type string

const (
	MemoryBackend Type = "memory"
	JSONBackend   Type = "json"
	SQLiteBackend Type = "sqlite"
	SheetsBackend Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, JSONBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
