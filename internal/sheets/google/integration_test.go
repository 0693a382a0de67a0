//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"spendlens/internal/core"
	"spendlens/internal/log"
)

// Run with: go test -tags=integration ./internal/sheets/google
// Uses a scratch tab; do not point it at a sheet holding real data.
func TestIntegration_SaveLoad(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" && os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" {
		t.Skip("service account credentials not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s, err := New(ctx, Config{
		SpreadsheetID:      spreadsheetID,
		SheetName:          "IntegrationTest",
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}, log.Discard())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	want := []core.Record{{
		ID:          "integration-1",
		Amount:      12.34,
		Category:    "Food",
		Date:        core.DateOf(time.Now()),
		Description: "Integration Test Expense",
		Timestamp:   time.Now().UTC().Truncate(time.Second),
	}}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Failed to load: %v", err)
	}
	if len(got) != 1 || got[0].ID != want[0].ID || got[0].Amount != want[0].Amount {
		t.Errorf("round trip mismatch: got %+v", got)
	}
}
