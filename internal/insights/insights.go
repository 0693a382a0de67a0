// Package insights turns a record collection into advisory signals. Every
// function is read-only and needs at least MinRecords records.
package insights

import (
	"errors"
	"fmt"
	"math"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

// MinRecords is the smallest collection any insight is drawn from.
const MinRecords = 5

const (
	dominantShare    = 40.0
	savingFraction   = 0.2
	spikeFactor      = 1.5
	improveFactor    = 0.8
	outlierFactor    = 5.0
	windowDays       = 7
	projectionDays   = 30
	warningProgress  = 0.5
	criticalProgress = 0.8
)

var (
	ErrInsufficientData = fmt.Errorf("insufficient data: need at least %d records", MinRecords)
	ErrInvalidTarget    = errors.New("budget target must be positive")
)

// Kind identifies a signal.
type Kind string

const (
	KindHeavySpending       Kind = "heavy_spending"
	KindBalanced            Kind = "balanced"
	KindSpendingSpike       Kind = "spending_spike"
	KindSpendingImprovement Kind = "spending_improvement"
	KindOutlier             Kind = "outlier"
)

// Signal is one structured insight. Only the fields relevant to Kind are set.
type Signal struct {
	Kind            Kind    `json:"kind"`
	Message         string  `json:"message"`
	Category        string  `json:"category,omitempty"`
	Share           float64 `json:"share,omitempty"`
	SuggestedSaving float64 `json:"suggested_saving,omitempty"`
	Current         float64 `json:"current,omitempty"`
	Prior           float64 `json:"prior,omitempty"`
	Percent         float64 `json:"percent,omitempty"`
	Amount          float64 `json:"amount,omitempty"`
	Mean            float64 `json:"mean,omitempty"`
}

func enough(records []core.Record) error {
	if len(records) < MinRecords {
		return fmt.Errorf("%w (have %d)", ErrInsufficientData, len(records))
	}
	return nil
}

// DominantCategoryAlert flags a category holding more than 40% of spend.
func DominantCategoryAlert(records []core.Record) (Signal, error) {
	if err := enough(records); err != nil {
		return Signal{}, err
	}
	top := analytics.TopNCategories(records, 1)
	if len(top) == 0 || top[0].Share <= dominantShare {
		return Signal{Kind: KindBalanced, Message: "Spending is spread evenly across categories"}, nil
	}
	c := top[0]
	saving := c.Sum * savingFraction
	return Signal{
		Kind:            KindHeavySpending,
		Category:        c.Category,
		Share:           c.Share,
		SuggestedSaving: saving,
		Message: fmt.Sprintf("%s takes %.1f%% of spending; trimming it by 20%% would save %s a month",
			c.Category, c.Share, core.FormatAmount(saving)),
	}, nil
}

// SpikeDetection compares the seven days ending at ref with the seven days
// before. It returns nil when the prior window is empty or the change is
// within bounds.
func SpikeDetection(records []core.Record, ref core.Date) (*Signal, error) {
	if err := enough(records); err != nil {
		return nil, err
	}
	currentStart := ref.AddDays(-(windowDays - 1))
	priorStart := currentStart.AddDays(-windowDays)
	priorEnd := currentStart.AddDays(-1)

	current := windowSum(records, currentStart, ref)
	prior, priorCount := 0.0, 0
	for _, r := range records {
		if inWindow(r.Date, priorStart, priorEnd) {
			prior += r.Amount
			priorCount++
		}
	}
	if priorCount == 0 || prior <= 0 {
		return nil, nil
	}

	switch {
	case current >= spikeFactor*prior:
		pct := (current - prior) / prior * 100
		return &Signal{
			Kind:    KindSpendingSpike,
			Current: current,
			Prior:   prior,
			Percent: pct,
			Message: fmt.Sprintf("Spending rose %.0f%% over the previous week", pct),
		}, nil
	case current <= improveFactor*prior:
		pct := (prior - current) / prior * 100
		return &Signal{
			Kind:    KindSpendingImprovement,
			Current: current,
			Prior:   prior,
			Percent: pct,
			Message: fmt.Sprintf("Spending fell %.0f%% compared with the previous week", pct),
		}, nil
	}
	return nil, nil
}

func inWindow(d, from, to core.Date) bool {
	return !d.Before(from.Time) && !d.After(to.Time)
}

func windowSum(records []core.Record, from, to core.Date) float64 {
	var sum float64
	for _, r := range records {
		if inWindow(r.Date, from, to) {
			sum += r.Amount
		}
	}
	return sum
}

// OutlierDetection flags a maximum amount above five times the mean.
func OutlierDetection(records []core.Record) (*Signal, error) {
	if err := enough(records); err != nil {
		return nil, err
	}
	s := analytics.ComputeStats(records, false)
	if s.Max <= outlierFactor*s.Mean {
		return nil, nil
	}
	return &Signal{
		Kind:    KindOutlier,
		Amount:  s.Max,
		Mean:    s.Mean,
		Message: fmt.Sprintf("An expense of %s is more than five times the average of %s", core.FormatAmount(s.Max), core.FormatAmount(s.Mean)),
	}, nil
}

// Band grades budget progress.
type Band string

const (
	BandHealthy  Band = "healthy"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// BandFor grades progress; exactly 0.5 is still healthy.
func BandFor(progress float64) Band {
	switch {
	case progress > criticalProgress:
		return BandCritical
	case progress > warningProgress:
		return BandWarning
	default:
		return BandHealthy
	}
}

// Projection extrapolates the current pace against a monthly target.
type Projection struct {
	Target           float64 `json:"target"`
	Total            float64 `json:"total"`
	DaysSpan         int     `json:"days_span"`
	DailyAverage     float64 `json:"daily_average"`
	ProjectedMonthly float64 `json:"projected_monthly"`
	Progress         float64 `json:"progress"`
	Band             Band    `json:"band"`
}

// BudgetProjection projects monthly spend from the span the records cover.
func BudgetProjection(records []core.Record, target float64) (Projection, error) {
	if err := enough(records); err != nil {
		return Projection{}, err
	}
	if math.IsNaN(target) || target <= 0 {
		return Projection{}, ErrInvalidTarget
	}
	first, last := records[0].Date, records[0].Date
	for _, r := range records[1:] {
		if r.Date.Before(first.Time) {
			first = r.Date
		}
		if r.Date.After(last.Time) {
			last = r.Date
		}
	}
	span := max(first.DaysUntil(last)+1, 1)
	total := core.Total(records)
	daily := total / float64(span)
	progress := math.Min(total/target, 1)
	return Projection{
		Target:           target,
		Total:            total,
		DaysSpan:         span,
		DailyAverage:     daily,
		ProjectedMonthly: daily * projectionDays,
		Progress:         progress,
		Band:             BandFor(progress),
	}, nil
}

// Report gathers every insight for one collection.
type Report struct {
	Reference core.Date   `json:"reference"`
	Signals   []Signal    `json:"signals"`
	Budget    *Projection `json:"budget,omitempty"`
}

// Generate runs every insight. A target of zero skips the budget projection.
func Generate(records []core.Record, ref core.Date, target float64) (Report, error) {
	if err := enough(records); err != nil {
		return Report{}, err
	}
	if target < 0 {
		return Report{}, ErrInvalidTarget
	}

	report := Report{Reference: ref, Signals: []Signal{}}
	dominant, err := DominantCategoryAlert(records)
	if err != nil {
		return Report{}, err
	}
	report.Signals = append(report.Signals, dominant)

	spike, err := SpikeDetection(records, ref)
	if err != nil {
		return Report{}, err
	}
	if spike != nil {
		report.Signals = append(report.Signals, *spike)
	}

	outlier, err := OutlierDetection(records)
	if err != nil {
		return Report{}, err
	}
	if outlier != nil {
		report.Signals = append(report.Signals, *outlier)
	}

	if target > 0 {
		p, err := BudgetProjection(records, target)
		if err != nil {
			return Report{}, err
		}
		report.Budget = &p
	}
	return report, nil
}
