// Package jsonfile stores records as a JSON array on disk, the same layout the
// original expenses.json used, so existing files load unchanged.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendlens/internal/core"
	"spendlens/internal/log"
)

// legacyIDSpace namespaces the ids derived for entries that carry none.
var legacyIDSpace = uuid.MustParse("5b0f6c43-6f0e-4d0a-9a57-2d1c1f3e8a21")

// legacyTimestamp is the naive local layout older files carry.
const legacyTimestamp = "2006-01-02T15:04:05.999999"

type Store struct {
	path   string
	logger *log.Logger
}

func New(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Discard()
	}
	return &Store{path: path, logger: logger.WithComponent(log.ComponentStorage)}
}

// fileRecord is the on-disk shape; id and timestamp may be absent in old files.
type fileRecord struct {
	ID          string  `json:"id,omitempty"`
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Timestamp   string  `json:"timestamp,omitempty"`
}

// Load reads the file. A missing or unreadable file yields an empty
// collection and a warning; invalid entries are skipped.
func (s *Store) Load(ctx context.Context) ([]core.Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []core.Record{}, nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Could not read expense file, starting empty", "file", s.path, log.FieldError, err)
		return []core.Record{}, nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return []core.Record{}, nil
	}

	var raw []fileRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.WarnContext(ctx, "Expense file is corrupt, starting empty", "file", s.path, log.FieldError, err)
		return []core.Record{}, nil
	}

	records := make([]core.Record, 0, len(raw))
	for i, fr := range raw {
		r, err := core.Validate(fr.Amount, fr.Category, fr.Date, fr.Description)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping invalid entry", "index", i, log.FieldError, err)
			continue
		}
		r.ID = fr.ID
		if r.ID == "" {
			r.ID = legacyID(i, fr)
		}
		r.Timestamp = parseTimestamp(fr.Timestamp)
		records = append(records, r)
	}
	return records, nil
}

// legacyID derives an id from an entry's position and content, so an
// unsaved file yields the same ids on every load.
func legacyID(index int, fr fileRecord) string {
	key := fmt.Sprintf("%d|%s|%s|%s|%s|%s", index,
		strconv.FormatFloat(fr.Amount, 'f', -1, 64), fr.Category, fr.Date, fr.Description, fr.Timestamp)
	return uuid.NewSHA1(legacyIDSpace, []byte(key)).String()
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(legacyTimestamp, s, time.Local); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

// Save writes records to a temp file next to the target and renames it over
// the target, so readers never see a half-written file.
func (s *Store) Save(_ context.Context, records []core.Record) error {
	out := make([]fileRecord, len(records))
	for i, r := range records {
		out[i] = fileRecord{
			ID:          r.ID,
			Amount:      r.Amount,
			Category:    r.Category,
			Date:        r.Date.String(),
			Description: r.Description,
		}
		if !r.Timestamp.IsZero() {
			out[i].Timestamp = r.Timestamp.UTC().Format(time.RFC3339Nano)
		}
	}
	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
