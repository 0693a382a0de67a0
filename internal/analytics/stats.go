package analytics

import (
	"math"

	"spendlens/internal/core"
)

// Stats summarizes a set of amounts at full precision.
type Stats struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	// StdDev is the sample standard deviation; nil when not requested or
	// when there are fewer than two values.
	StdDev *float64 `json:"stddev"`
}

// ComputeStats summarizes records. The zero Stats is returned for no records.
func ComputeStats(records []core.Record, withStdDev bool) Stats {
	return statsOf(core.Amounts(records), withStdDev)
}

func statsOf(amounts []float64, withStdDev bool) Stats {
	if len(amounts) == 0 {
		return Stats{}
	}
	s := Stats{Count: len(amounts), Min: amounts[0], Max: amounts[0]}
	for _, a := range amounts {
		s.Sum += a
		s.Min = math.Min(s.Min, a)
		s.Max = math.Max(s.Max, a)
	}
	s.Mean = s.Sum / float64(s.Count)
	if withStdDev {
		s.StdDev = sampleStdDev(amounts, s.Mean)
	}
	return s
}

func sampleStdDev(amounts []float64, mean float64) *float64 {
	if len(amounts) < 2 {
		return nil
	}
	var ss float64
	for _, a := range amounts {
		d := a - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(amounts)-1))
	return &sd
}

// Rounded returns a copy with every value rounded to two decimals.
func (s Stats) Rounded() Stats {
	out := Stats{
		Sum:   core.Round2(s.Sum),
		Count: s.Count,
		Mean:  core.Round2(s.Mean),
		Min:   core.Round2(s.Min),
		Max:   core.Round2(s.Max),
	}
	if s.StdDev != nil {
		sd := core.Round2(*s.StdDev)
		out.StdDev = &sd
	}
	return out
}
