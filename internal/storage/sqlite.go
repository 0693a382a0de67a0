package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"spendlens/internal/core"
	"spendlens/internal/log"
)

// SQLiteStore keeps the collection in a SQLite table, ordered by position.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// Snapshot describes the most recent successful Save.
type Snapshot struct {
	Count   int       `json:"count"`
	Total   float64   `json:"total"`
	SavedAt time.Time `json:"saved_at"`
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and runs
// migrations.
func NewSQLiteStore(dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps full-snapshot replaces from interleaving.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage)
	logger.Debug("SQLite schema ready", "path", dbPath, "schema_version", version)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Load reads every row. Rows that no longer validate are skipped with a
// warning rather than failing the whole load.
func (s *SQLiteStore) Load(ctx context.Context) ([]core.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, category, date, description, timestamp FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []core.Record{}
	for rows.Next() {
		var (
			id, category, date, description, ts string
			amount                              float64
		)
		if err := rows.Scan(&id, &amount, &category, &date, &description, &ts); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r, err := core.Validate(amount, category, date, description)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid stored record", log.FieldRecordID, id, log.FieldError, err)
			continue
		}
		r.ID = id
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = parsed
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// Save replaces every row inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records []core.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, position, amount, category, date, description, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err = stmt.ExecContext(ctx, r.ID, i, r.Amount, r.Category, r.Date.String(), r.Description,
			r.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO snapshots (count, total, saved_at) VALUES (?, ?, ?)`,
		len(records), core.Total(records), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record snapshot: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	s.logger.DebugContext(ctx, "Records saved to SQLite", log.FieldCount, len(records))
	return nil
}

// LastSnapshot reports the most recent Save; ok is false before the first.
func (s *SQLiteStore) LastSnapshot(ctx context.Context) (snap Snapshot, ok bool, err error) {
	var savedAt string
	err = s.db.QueryRowContext(ctx,
		`SELECT count, total, saved_at FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&snap.Count, &snap.Total, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("query snapshot: %w", err)
	}
	snap.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parse snapshot time: %w", err)
	}
	return snap, true, nil
}
