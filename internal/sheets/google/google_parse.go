package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"spendlens/internal/core"
)

var header = []string{"ID", "Date", "Amount", "Category", "Description", "Timestamp"}

const lastColumn = "F"

const (
	colID = iota
	colDate
	colAmount
	colCategory
	colDescription
	colTimestamp
)

func toRows(records []core.Record) [][]any {
	rows := make([][]any, 0, len(records)+1)
	h := make([]any, len(header))
	for i, v := range header {
		h[i] = v
	}
	rows = append(rows, h)
	for _, r := range records {
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.UTC().Format(time.RFC3339Nano)
		}
		rows = append(rows, []any{r.ID, r.Date.String(), r.Amount, r.Category, r.Description, ts})
	}
	return rows
}

// parseRows converts a values matrix back to records. The header row and
// blank rows are ignored; rows that fail validation are counted as skipped.
func parseRows(values [][]any) (records []core.Record, skipped int) {
	records = []core.Record{}
	for i, row := range values {
		cols := toStrings(row)
		if isBlank(cols) {
			continue
		}
		if i == 0 && strings.EqualFold(safeGet(cols, colID), header[colID]) {
			continue
		}
		amount, ok := parseAmount(safeGet(cols, colAmount))
		if !ok {
			skipped++
			continue
		}
		r, err := core.Validate(amount, safeGet(cols, colCategory), safeGet(cols, colDate), safeGet(cols, colDescription))
		if err != nil || safeGet(cols, colID) == "" {
			skipped++
			continue
		}
		r.ID = safeGet(cols, colID)
		if ts, err := time.Parse(time.RFC3339Nano, safeGet(cols, colTimestamp)); err == nil {
			r.Timestamp = ts
		}
		records = append(records, r)
	}
	return records, skipped
}

// parseAmount accepts numbers as the API returns them, including a decimal
// comma from locales that format cells that way.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
