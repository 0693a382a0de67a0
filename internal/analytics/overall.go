package analytics

import "spendlens/internal/core"

// OverallSummary is the headline view of a record set.
type OverallSummary struct {
	Total    float64    `json:"total"`
	Count    int        `json:"count"`
	Mean     float64    `json:"mean"`
	Highest  float64    `json:"highest"`
	Lowest   float64    `json:"lowest"`
	First    *core.Date `json:"first_date"`
	Last     *core.Date `json:"last_date"`
	Category string     `json:"top_category,omitempty"`
}

// Overall summarizes records. An empty input yields the zero summary.
func Overall(records []core.Record) OverallSummary {
	if len(records) == 0 {
		return OverallSummary{}
	}
	s := ComputeStats(records, false)
	first, last := records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(first.Time) {
			first = r.Date
		}
		if r.Date.After(last.Time) {
			last = r.Date
		}
	}
	out := OverallSummary{
		Total:   s.Sum,
		Count:   s.Count,
		Mean:    s.Mean,
		Highest: s.Max,
		Lowest:  s.Min,
		First:   &first,
		Last:    &last,
	}
	if top := TopNCategories(records, 1); len(top) == 1 {
		out.Category = top[0].Category
	}
	return out
}
