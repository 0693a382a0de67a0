package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func TestStoreCopiesOnLoadAndSave(t *testing.T) {
	ctx := context.Background()
	seed := core.Record{ID: "a", Amount: 1, Category: "Food", Date: core.NewDate(2025, 1, 1), Description: "x"}
	s := New(seed)

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	got[0].Amount = 99

	again, _ := s.Load(ctx)
	assert.Equal(t, 1.0, again[0].Amount)

	batch := []core.Record{seed, seed}
	require.NoError(t, s.Save(ctx, batch))
	batch[0].Category = "Changed"
	again, _ = s.Load(ctx)
	assert.Len(t, again, 2)
	assert.Equal(t, "Food", again[0].Category)
	assert.Equal(t, 1, s.Saves())
}

func TestEmptyStoreLoadsEmptySlice(t *testing.T) {
	got, err := New().Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
