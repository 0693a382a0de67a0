package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "spendlens.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	ts := time.Date(2025, 2, 3, 4, 5, 6, 7000, time.UTC)
	records := []core.Record{
		{ID: "b", Amount: 40, Category: "Transport", Date: core.NewDate(2025, 2, 3), Description: "taxi", Timestamp: ts},
		{ID: "a", Amount: 12.34, Category: "Food", Date: core.NewDate(2025, 2, 1), Description: "cafe", Timestamp: ts},
	}
	require.NoError(t, s.Save(ctx, records))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got, "insertion order is kept")

	require.NoError(t, s.Save(ctx, records[:1]))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	snap, ok, err := s.LastSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, snap.Count)
	assert.Equal(t, 40.0, snap.Total)
}

func TestSQLiteStoreRejectsDuplicateIDsAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	good := []core.Record{{ID: "x", Amount: 1, Category: "Food", Date: core.NewDate(2025, 1, 1), Description: "d"}}
	require.NoError(t, s.Save(ctx, good))

	dup := append(good, good[0])
	assert.Error(t, s.Save(ctx, dup))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, good, got, "failed save leaves previous snapshot")
}

func TestSQLiteStorePing(t *testing.T) {
	assert.NoError(t, newTestStore(t).Ping(context.Background()))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	v, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
	v, err = RunMigrations(path)
	require.NoError(t, err, "re-running is a no-op")
	assert.Equal(t, SchemaVersion, v)
}
