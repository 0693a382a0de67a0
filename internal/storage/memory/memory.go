// Package memory is a process-local Store, used for demos and tests.
package memory

import (
	"context"
	"sync"

	"spendlens/internal/core"
)

type Store struct {
	mu    sync.Mutex
	items []core.Record
	saves int
}

// New returns a store seeded with records.
func New(seed ...core.Record) *Store {
	return &Store{items: clone(seed)}
}

// Load returns a copy of the stored records.
func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.items), nil
}

// Save replaces the stored records with a copy of records.
func (s *Store) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = clone(records)
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func clone(in []core.Record) []core.Record {
	out := make([]core.Record, len(in))
	copy(out, in)
	return out
}
