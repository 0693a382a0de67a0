package analytics

import (
	"strings"

	"spendlens/internal/core"
)

// Filter narrows a record set before it is aggregated. Zero fields match
// everything; bounds are inclusive.
type Filter struct {
	Categories []string
	From       *core.Date
	To         *core.Date
	MinAmount  *float64
	MaxAmount  *float64
}

// IsZero reports whether f matches every record.
func (f Filter) IsZero() bool {
	return len(f.Categories) == 0 && f.From == nil && f.To == nil && f.MinAmount == nil && f.MaxAmount == nil
}

// Matches reports whether r passes f. Category comparison ignores case.
func (f Filter) Matches(r core.Record) bool {
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if strings.EqualFold(c, r.Category) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && r.Date.Before(f.From.Time) {
		return false
	}
	if f.To != nil && r.Date.After(f.To.Time) {
		return false
	}
	if f.MinAmount != nil && r.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && r.Amount > *f.MaxAmount {
		return false
	}
	return true
}

// Apply returns the records passing f in their original order.
func (f Filter) Apply(records []core.Record) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
