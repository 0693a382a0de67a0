package analytics

import (
	"sort"

	"spendlens/internal/core"
)

// CategoryTotal is one category's slice of spend. Share is a percentage of
// the grand total.
type CategoryTotal struct {
	Category string   `json:"category"`
	Sum      float64  `json:"sum"`
	Count    int      `json:"count"`
	Mean     float64  `json:"mean"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	StdDev   *float64 `json:"stddev"`
	Share    float64  `json:"share"`
}

// CategoryBreakdown returns per-category totals ordered by sum descending,
// ties by name ascending. Shares sum to 100 for any non-empty input.
func CategoryBreakdown(records []core.Record) []CategoryTotal {
	grouped := map[string][]float64{}
	for _, r := range records {
		grouped[r.Category] = append(grouped[r.Category], r.Amount)
	}

	grand := core.Total(records)
	out := make([]CategoryTotal, 0, len(grouped))
	for cat, amounts := range grouped {
		s := statsOf(amounts, true)
		ct := CategoryTotal{
			Category: cat,
			Sum:      s.Sum,
			Count:    s.Count,
			Mean:     s.Mean,
			Min:      s.Min,
			Max:      s.Max,
			StdDev:   s.StdDev,
		}
		if grand > 0 {
			ct.Share = s.Sum / grand * 100
		}
		out = append(out, ct)
	}
	sortCategoryTotals(out)
	return out
}

// TopNCategories returns at most n categories by sum descending.
func TopNCategories(records []core.Record, n int) []CategoryTotal {
	if n <= 0 {
		return []CategoryTotal{}
	}
	all := CategoryBreakdown(records)
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func sortCategoryTotals(cts []CategoryTotal) {
	sort.Slice(cts, func(i, j int) bool {
		if cts[i].Sum != cts[j].Sum {
			return cts[i].Sum > cts[j].Sum
		}
		return cts[i].Category < cts[j].Category
	})
}
