// Package google stores the record collection in a Google Sheets tab, one row
// per record under a fixed header.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendlens/internal/core"
	"spendlens/internal/log"
	"spendlens/internal/storage"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// valuesAPI is the slice of the Sheets values API the store needs.
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]any, error)
	Update(ctx context.Context, rng string, values [][]any) error
	Clear(ctx context.Context, rng string) error
}

type Store struct {
	values valuesAPI
	sheet  string
	logger *log.Logger
}

var _ storage.Store = (*Store)(nil)

// New connects to the Sheets API with service account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newStore(&serviceValues{svc: svc, spreadsheetID: cfg.SpreadsheetID}, cfg.SheetName, logger), nil
}

func newStore(values valuesAPI, sheet string, logger *log.Logger) *Store {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		sheet = "Records"
	}
	return &Store{values: values, sheet: sheet, logger: logger}
}

// newSheetsService builds a Sheets client from inline JSON, a file, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inline != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(inline)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read service account credentials", "file", file, "size", len(data))
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Load reads every row below the header. Rows that do not parse are skipped.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	rng := fmt.Sprintf("%s!A:%s", s.sheet, lastColumn)
	values, err := s.values.Get(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	records, skipped := parseRows(values)
	if skipped > 0 {
		s.logger.WarnContext(ctx, "Skipped unreadable sheet rows", log.FieldCount, skipped)
	}
	return records, nil
}

// Save writes the header and every record from A1, then clears whatever rows
// the previous, longer collection left below.
func (s *Store) Save(ctx context.Context, records []core.Record) error {
	rows := toRows(records)
	rng := fmt.Sprintf("%s!A1:%s%d", s.sheet, lastColumn, len(rows))
	if err := s.values.Update(ctx, rng, rows); err != nil {
		return fmt.Errorf("update %s: %w", rng, err)
	}
	tail := fmt.Sprintf("%s!A%d:%s", s.sheet, len(rows)+1, lastColumn)
	if err := s.values.Clear(ctx, tail); err != nil {
		return fmt.Errorf("clear %s: %w", tail, err)
	}
	s.logger.DebugContext(ctx, "Records written to sheet", log.FieldCount, len(records))
	return nil
}

type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (v *serviceValues) Get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := v.svc.Spreadsheets.Values.Get(v.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v *serviceValues) Update(ctx context.Context, rng string, values [][]any) error {
	_, err := v.svc.Spreadsheets.Values.Update(v.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (v *serviceValues) Clear(ctx context.Context, rng string) error {
	_, err := v.svc.Spreadsheets.Values.Clear(v.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
	return err
}
