package analytics

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"spendlens/internal/core"
)

// DefaultEdges are the quantile cut points used when none are given.
var DefaultEdges = []float64{0.25, 0.5, 0.75, 0.9}

var ErrInvalidEdges = errors.New("quantile edges must be strictly increasing within [0, 1]")

// DistributionBucket is one quantile band. Bucket i holds amounts in
// (Lower, Upper]; the last bucket holds amounts strictly above Lower and has
// no Upper.
type DistributionBucket struct {
	Label   string        `json:"label"`
	Lower   *float64      `json:"lower"`
	Upper   *float64      `json:"upper"`
	Count   int           `json:"count"`
	Sum     float64       `json:"sum"`
	Records []core.Record `json:"records"`
}

// Quantile returns the p-quantile of sorted using linear interpolation
// between order statistics.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// QuantileDistribution partitions records into len(edges)+1 bands. Every
// record lands in exactly one band, so coinciding quantiles leave some bands
// empty rather than double counting.
func QuantileDistribution(records []core.Record, edges []float64) ([]DistributionBucket, error) {
	if edges == nil {
		edges = DefaultEdges
	}
	if err := checkEdges(edges); err != nil {
		return nil, err
	}

	amounts := core.Amounts(records)
	sort.Float64s(amounts)

	buckets := make([]DistributionBucket, len(edges)+1)
	qs := make([]float64, len(edges))
	for i, p := range edges {
		qs[i] = Quantile(amounts, p)
	}
	for i := range buckets {
		buckets[i].Label = bandLabel(edges, i)
		buckets[i].Records = []core.Record{}
		if len(amounts) == 0 {
			continue
		}
		if i > 0 {
			lower := qs[i-1]
			buckets[i].Lower = &lower
		}
		if i < len(qs) {
			upper := qs[i]
			buckets[i].Upper = &upper
		}
	}

	if len(amounts) == 0 {
		return buckets, nil
	}
	for _, r := range records {
		i := bandOf(r.Amount, qs)
		buckets[i].Count++
		buckets[i].Sum += r.Amount
		buckets[i].Records = append(buckets[i].Records, r)
	}
	return buckets, nil
}

func bandOf(amount float64, qs []float64) int {
	for i, q := range qs {
		if amount <= q {
			return i
		}
	}
	return len(qs)
}

func checkEdges(edges []float64) error {
	if len(edges) == 0 {
		return ErrInvalidEdges
	}
	prev := -1.0
	for _, e := range edges {
		if math.IsNaN(e) || e < 0 || e > 1 || e <= prev {
			return fmt.Errorf("%w: %v", ErrInvalidEdges, edges)
		}
		prev = e
	}
	return nil
}

func bandLabel(edges []float64, i int) string {
	switch {
	case i == 0:
		return "0-" + percent(edges[0]) + "%"
	case i == len(edges):
		return percent(edges[i-1]) + "%+"
	default:
		return percent(edges[i-1]) + "-" + percent(edges[i]) + "%"
	}
}

func percent(p float64) string {
	return fmt.Sprintf("%g", math.Round(p*10000)/100)
}
