// Package analytics computes aggregate views over expense records. All
// functions are pure and leave their inputs untouched.
package analytics

import (
	"fmt"
	"sort"
	"strings"

	"spendlens/internal/core"
)

// Granularity is a time-bucketing resolution.
type Granularity string

const (
	Daily     Granularity = "daily"
	Weekly    Granularity = "weekly"
	Monthly   Granularity = "monthly"
	Quarterly Granularity = "quarterly"
	Yearly    Granularity = "yearly"
)

// Granularities lists every supported granularity, finest first.
func Granularities() []Granularity {
	return []Granularity{Daily, Weekly, Monthly, Quarterly, Yearly}
}

// ParseGranularity accepts any casing of a granularity name.
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Granularities() {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// PeriodKey returns the bucket key of d. Keys of one granularity sort
// chronologically as plain strings.
func PeriodKey(d core.Date, g Granularity) string {
	switch g {
	case Weekly:
		year, week := d.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Monthly:
		return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", d.Year(), 1+(int(d.Month())-1)/3)
	case Yearly:
		return fmt.Sprintf("%04d", d.Year())
	default:
		return d.String()
	}
}

// Bucket holds the records of one period.
type Bucket struct {
	Key     string        `json:"key"`
	Records []core.Record `json:"records"`
	Stats   Stats         `json:"stats"`
}

// GroupByPeriod buckets records by period key, ordered by key ascending.
// Records keep their input order within a bucket.
func GroupByPeriod(records []core.Record, g Granularity, withStdDev bool) []Bucket {
	index := map[string]int{}
	var buckets []Bucket
	for _, r := range records {
		key := PeriodKey(r.Date, g)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].Records = append(buckets[i].Records, r)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	for i := range buckets {
		buckets[i].Stats = ComputeStats(buckets[i].Records, withStdDev)
	}
	return buckets
}
