package google

import (
	"context"
	"errors"
	"strings"
	"testing"

	"spendlens/internal/core"
	"spendlens/internal/log"
)

type fakeValues struct {
	rows      [][]any
	updates   []string
	clears    []string
	failGet   error
	failWrite error
}

func (f *fakeValues) Get(_ context.Context, _ string) ([][]any, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	return f.rows, nil
}

func (f *fakeValues) Update(_ context.Context, rng string, values [][]any) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.updates = append(f.updates, rng)
	f.rows = values
	return nil
}

func (f *fakeValues) Clear(_ context.Context, rng string) error {
	f.clears = append(f.clears, rng)
	return nil
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestNew_InvalidCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", ServiceAccountJSON: "not-json"}, nil)
	if err == nil {
		t.Fatal("expected error with invalid credentials")
	}
}

func TestStoreSaveThenLoad(t *testing.T) {
	ctx := context.Background()
	fake := &fakeValues{}
	s := newStore(fake, "", log.Discard())

	records := []core.Record{
		{ID: "1", Amount: 5, Category: "Food", Date: core.NewDate(2025, 5, 1), Description: "snack"},
		{ID: "2", Amount: 15, Category: "Transport", Date: core.NewDate(2025, 5, 2), Description: "bus"},
	}
	if err := s.Save(ctx, records); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := fake.updates[0]; got != "Records!A1:F3" {
		t.Errorf("unexpected update range %q", got)
	}
	if got := fake.clears[0]; got != "Records!A4:F" {
		t.Errorf("unexpected clear range %q", got)
	}

	loaded, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Category != "Transport" {
		t.Errorf("unexpected records: %+v", loaded)
	}
}

func TestStoreErrorsAreWrapped(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := newStore(&fakeValues{failGet: boom, failWrite: boom}, "Ledger", log.Discard())

	if _, err := s.Load(context.Background()); !errors.Is(err, boom) || !strings.Contains(err.Error(), "Ledger!A:F") {
		t.Errorf("load error not wrapped: %v", err)
	}
	if err := s.Save(context.Background(), nil); !errors.Is(err, boom) {
		t.Errorf("save error not wrapped: %v", err)
	}
}
