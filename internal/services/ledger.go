// Package services owns the record collection and the views built on it.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/log"
	"spendlens/internal/storage"
)

var ErrRecordNotFound = errors.New("record not found")

// Change describes one committed write. Records is the collection as of
// Revision and must not be modified.
type Change struct {
	Revision  uint64
	Operation string
	Record    core.Record
	Records   []core.Record
	At        time.Time
}

// Subscriber is told about every committed write, in revision order. It runs
// while the ledger is locked and must not call back into the Ledger.
type Subscriber func(ctx context.Context, c Change)

// Ledger is the only writer of the record collection. Each write builds a new
// slice, saves it, and swaps it in only if the save succeeded.
type Ledger struct {
	mu       sync.RWMutex
	store    storage.Store
	records  []core.Record
	revision uint64
	subs     []Subscriber

	now    func() time.Time
	logger *log.Logger
	events *log.StructuredLogger
}

func NewLedger(store storage.Store, logger *log.Logger) *Ledger {
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &Ledger{
		store:   store,
		records: []core.Record{},
		now:     time.Now,
		logger:  logger,
		events:  log.NewStructuredLogger(logger),
	}
}

// Subscribe registers fn for future writes.
func (l *Ledger) Subscribe(fn Subscriber) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = append(l.subs, fn)
}

// Load replaces the in-memory collection with the store's contents.
func (l *Ledger) Load(ctx context.Context) error {
	records, err := l.store.Load(ctx)
	if err != nil {
		return &core.PersistenceError{Op: log.OpLoad, Err: err}
	}
	if records == nil {
		records = []core.Record{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = records
	l.revision++
	l.logger.InfoContext(ctx, "Records loaded", log.FieldCount, len(records), log.FieldRevision, l.revision)
	l.notify(ctx, Change{Revision: l.revision, Operation: log.OpLoad, Records: l.records, At: l.now()})
	return nil
}

// Records returns a copy of the collection.
func (l *Ledger) Records() []core.Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Record(nil), l.records...)
}

// Snapshot returns the collection and its revision together.
func (l *Ledger) Snapshot() ([]core.Record, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]core.Record(nil), l.records...), l.revision
}

// Revision counts loads and committed writes.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Get returns the record with id.
func (l *Ledger) Get(id string) (core.Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(id); i >= 0 {
		return l.records[i], nil
	}
	return core.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

// Add validates in and appends it.
func (l *Ledger) Add(ctx context.Context, in core.RecordInput) (core.Record, error) {
	r, err := core.NewRecord(in, l.now())
	if err != nil {
		return core.Record{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]core.Record, len(l.records), len(l.records)+1)
	copy(next, l.records)
	next = append(next, r)
	if err := l.commit(ctx, log.OpCreate, r, next); err != nil {
		return core.Record{}, err
	}
	return r, nil
}

// AddFromDraft confirms a reviewed extraction draft. Missing dates default
// to today.
func (l *Ledger) AddFromDraft(ctx context.Context, d core.ExtractionDraft, edits core.DraftEdits) (core.Record, error) {
	return l.Add(ctx, d.Merge(edits, core.DateOf(l.now())))
}

// Edit applies patch to the record with id.
func (l *Ledger) Edit(ctx context.Context, id string, patch core.RecordPatch) (core.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	updated, err := l.records[i].Apply(patch)
	if err != nil {
		return core.Record{}, err
	}
	next := append([]core.Record(nil), l.records...)
	next[i] = updated
	if err := l.commit(ctx, log.OpUpdate, updated, next); err != nil {
		return core.Record{}, err
	}
	return updated, nil
}

// Delete removes the record with id and returns it.
func (l *Ledger) Delete(ctx context.Context, id string) (core.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return core.Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	return l.deleteAt(ctx, i)
}

// DeleteAt removes the record at a zero-based position, as listed by Records.
func (l *Ledger) DeleteAt(ctx context.Context, index int) (core.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.records) {
		return core.Record{}, fmt.Errorf("%w: position %d", ErrRecordNotFound, index+1)
	}
	return l.deleteAt(ctx, index)
}

func (l *Ledger) deleteAt(ctx context.Context, i int) (core.Record, error) {
	removed := l.records[i]
	next := make([]core.Record, 0, len(l.records)-1)
	next = append(next, l.records[:i]...)
	next = append(next, l.records[i+1:]...)
	if err := l.commit(ctx, log.OpDelete, removed, next); err != nil {
		return core.Record{}, err
	}
	return removed, nil
}

// commit saves next and publishes it. Callers hold l.mu.
func (l *Ledger) commit(ctx context.Context, op string, r core.Record, next []core.Record) error {
	if err := l.store.Save(ctx, next); err != nil {
		l.events.LogError(ctx, "Save failed, collection unchanged", err, op,
			log.NewFields().WithRecord(r.ID, r.Amount, r.Category, r.Date.String()))
		return &core.PersistenceError{Op: log.OpSave, Err: err}
	}
	l.records = next
	l.revision++
	l.events.LogRecordWritten(ctx, op, r.ID, r.Amount, r.Category, r.Date.String(), l.revision)
	l.notify(ctx, Change{Revision: l.revision, Operation: op, Record: r, Records: next, At: l.now()})
	return nil
}

func (l *Ledger) notify(ctx context.Context, c Change) {
	for _, fn := range l.subs {
		fn(ctx, c)
	}
}

func (l *Ledger) indexOf(id string) int {
	for i, r := range l.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
