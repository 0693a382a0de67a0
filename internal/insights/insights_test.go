package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func rec(amount float64, cat string, date core.Date) core.Record {
	return core.Record{Amount: amount, Category: cat, Date: date, Description: "x"}
}

func day(d int) core.Date { return core.NewDate(2025, 3, d) }

func TestInsufficientData(t *testing.T) {
	few := []core.Record{
		rec(1, "Food", day(1)), rec(2, "Food", day(2)), rec(3, "Food", day(3)), rec(4, "Food", day(4)),
	}
	_, err := DominantCategoryAlert(few)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = SpikeDetection(few, day(4))
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = OutlierDetection(few)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = BudgetProjection(few, 100)
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = Generate(few, day(4), 100)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDominantCategoryAlert(t *testing.T) {
	records := []core.Record{
		rec(30, "Food", day(1)),
		rec(30, "Food", day(2)),
		rec(20, "Transport", day(3)),
		rec(10, "Bills", day(4)),
		rec(10, "Health", day(5)),
	}
	s, err := DominantCategoryAlert(records)
	require.NoError(t, err)
	assert.Equal(t, KindHeavySpending, s.Kind)
	assert.Equal(t, "Food", s.Category)
	assert.InDelta(t, 60, s.Share, 1e-9)
	assert.InDelta(t, 12, s.SuggestedSaving, 1e-9)
	assert.NotEmpty(t, s.Message)
}

func TestDominantCategoryBalanced(t *testing.T) {
	records := []core.Record{
		rec(40, "Food", day(1)),
		rec(30, "Transport", day(2)),
		rec(20, "Bills", day(3)),
		rec(5, "Health", day(4)),
		rec(5, "Gifts", day(5)),
	}
	s, err := DominantCategoryAlert(records)
	require.NoError(t, err)
	assert.Equal(t, KindBalanced, s.Kind, "exactly 40% is not dominant")
}

func TestSpikeDetection(t *testing.T) {
	ref := day(14)
	records := []core.Record{
		rec(10, "Food", core.NewDate(2025, 2, 1)),
		rec(50, "Food", day(1)),
		rec(50, "Food", day(7)),
		rec(100, "Food", day(8)),
		rec(100, "Food", day(14)),
	}
	s, err := SpikeDetection(records, ref)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, KindSpendingSpike, s.Kind)
	assert.InDelta(t, 100, s.Percent, 1e-9)
	assert.Equal(t, 200.0, s.Current)
	assert.Equal(t, 100.0, s.Prior)
}

func TestSpikeDetectionImprovement(t *testing.T) {
	records := []core.Record{
		rec(10, "Food", core.NewDate(2025, 2, 1)),
		rec(60, "Food", day(2)),
		rec(40, "Food", day(6)),
		rec(25, "Food", day(9)),
		rec(25, "Food", day(13)),
	}
	s, err := SpikeDetection(records, day(14))
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, KindSpendingImprovement, s.Kind)
	assert.InDelta(t, 50, s.Percent, 1e-9)
}

func TestSpikeDetectionNoSignal(t *testing.T) {
	steady := []core.Record{
		rec(10, "Food", core.NewDate(2025, 2, 1)),
		rec(50, "Food", day(3)),
		rec(50, "Food", day(5)),
		rec(60, "Food", day(10)),
		rec(60, "Food", day(12)),
	}
	s, err := SpikeDetection(steady, day(14))
	require.NoError(t, err)
	assert.Nil(t, s)

	emptyPrior := []core.Record{
		rec(10, "Food", core.NewDate(2025, 1, 1)),
		rec(10, "Food", day(8)),
		rec(10, "Food", day(9)),
		rec(10, "Food", day(10)),
		rec(10, "Food", day(11)),
	}
	s, err = SpikeDetection(emptyPrior, day(14))
	require.NoError(t, err)
	assert.Nil(t, s, "no prior spending means no comparison")
}

func TestOutlierDetection(t *testing.T) {
	var records []core.Record
	for i := 1; i <= 9; i++ {
		records = append(records, rec(10, "Food", day(i)))
	}
	records = append(records, rec(1000, "Shopping", day(10)))

	s, err := OutlierDetection(records)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, KindOutlier, s.Kind)
	assert.Equal(t, 1000.0, s.Amount)
	assert.InDelta(t, 109, s.Mean, 1e-9)

	calm := []core.Record{
		rec(10, "Food", day(1)), rec(12, "Food", day(2)), rec(14, "Food", day(3)),
		rec(16, "Food", day(4)), rec(18, "Food", day(5)),
	}
	s, err = OutlierDetection(calm)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestBudgetProjection(t *testing.T) {
	records := []core.Record{
		rec(1500, "Bills", day(1)),
		rec(1500, "Food", day(3)),
		rec(1500, "Food", day(5)),
		rec(1500, "Food", day(8)),
		rec(1500, "Food", day(10)),
	}
	p, err := BudgetProjection(records, 15000)
	require.NoError(t, err)
	assert.Equal(t, 7500.0, p.Total)
	assert.Equal(t, 10, p.DaysSpan)
	assert.Equal(t, 750.0, p.DailyAverage)
	assert.Equal(t, 22500.0, p.ProjectedMonthly)
	assert.Equal(t, 0.5, p.Progress)
	assert.Equal(t, BandHealthy, p.Band, "0.5 is inclusive-healthy")
}

func TestBudgetProjectionSingleDayAndCap(t *testing.T) {
	var records []core.Record
	for i := 0; i < 5; i++ {
		records = append(records, rec(100, "Food", day(1)))
	}
	p, err := BudgetProjection(records, 300)
	require.NoError(t, err)
	assert.Equal(t, 1, p.DaysSpan)
	assert.Equal(t, 15000.0, p.ProjectedMonthly)
	assert.Equal(t, 1.0, p.Progress)
	assert.Equal(t, BandCritical, p.Band)

	_, err = BudgetProjection(records, 0)
	assert.ErrorIs(t, err, ErrInvalidTarget)
	_, err = BudgetProjection(records, -5)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandHealthy, BandFor(0))
	assert.Equal(t, BandHealthy, BandFor(0.5))
	assert.Equal(t, BandWarning, BandFor(0.51))
	assert.Equal(t, BandWarning, BandFor(0.8))
	assert.Equal(t, BandCritical, BandFor(0.81))
}

func TestGenerate(t *testing.T) {
	records := []core.Record{
		rec(10, "Food", core.NewDate(2025, 2, 1)),
		rec(50, "Food", day(1)),
		rec(50, "Food", day(7)),
		rec(100, "Food", day(8)),
		rec(100, "Transport", day(14)),
	}
	report, err := Generate(records, day(14), 1000)
	require.NoError(t, err)
	assert.Equal(t, day(14), report.Reference)

	var kinds []Kind
	for _, s := range report.Signals {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []Kind{KindHeavySpending, KindSpendingSpike}, kinds)
	require.NotNil(t, report.Budget)
	assert.Equal(t, 0.31, report.Budget.Progress)
	assert.Equal(t, BandHealthy, report.Budget.Band)

	noBudget, err := Generate(records, day(14), 0)
	require.NoError(t, err)
	assert.Nil(t, noBudget.Budget)

	_, err = Generate(records, day(14), -1)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}
