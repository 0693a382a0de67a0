// Package backend opens the record store selected by configuration.
package backend

import (
	"context"
	"fmt"

	"spendlens/internal/log"
	gsheet "spendlens/internal/sheets/google"
	"spendlens/internal/storage"
	"spendlens/internal/storage/jsonfile"
	"spendlens/internal/storage/memory"
)

// Factory opens backends.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open builds the store described by cfg.
func (f *Factory) Open(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		res *Result
		err error
	)
	switch cfg.Type {
	case MemoryBackend:
		res = &Result{Store: memory.New()}
	case JSONBackend:
		res = &Result{Store: jsonfile.New(cfg.JSONDataPath, f.logger)}
	case SQLiteBackend:
		res, err = f.openSQLite(cfg)
	case SheetsBackend:
		res, err = f.openSheets(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	res.Type = cfg.Type
	if p, ok := res.Store.(storage.Pinger); ok && res.Ready == nil {
		res.Ready = p.Ping
	}
	if s, ok := res.Store.(storage.Snapshotter); ok {
		res.LastSave = s.LastSnapshot
	}
	f.logger.Info("Initialized backend", "backend", cfg.Type.String())
	return res, nil
}

func (f *Factory) openSQLite(cfg Config) (*Result, error) {
	store, err := storage.NewSQLiteStore(cfg.SQLiteDBPath, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize sqlite store: %w", err)
	}
	f.logger.Debug("SQLite store ready", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: store, Cleanup: store.Close}, nil
}

func (f *Factory) openSheets(ctx context.Context, cfg Config) (*Result, error) {
	store, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("initialize google sheets store: %w", err)
	}
	return &Result{Store: store}, nil
}
