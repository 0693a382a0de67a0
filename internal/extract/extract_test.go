package extract

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/core"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{"max of currency marked", "Total: ₹1,234.56 Tax: ₹12", 1234.56, true},
		{"nothing", "no numbers here", 0, false},
		{"rs with dot", "Rs. 450 paid", 450, true},
		{"inr grouping", "INR 2,000 due", 2000, true},
		{"bare decimal beats bare year", "Invoice 2025 total 19.99", 19.99, true},
		{"mixed symbols", "$5 and €7.5", 7.5, true},
		{"multiline", "Subtotal 10.00\nTotal 12.50", 12.5, true},
		{"bare integers ignored", "call 9876543210", 0, false},
		{"pound", "£3.20 coffee", 3.2, true},
		{"three decimal places rejected", "Amount 1234.567", 0, false},
		{"three decimal places after currency rejected", "Rs 1234.567", 0, false},
		{"sentence full stop after amount", "Total Rs 450. Thanks", 450, true},
		{"three decimal places beside a real total", "Rate 0.125 Total 9.50", 9.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAmount(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestFuzzyDateParser(t *testing.T) {
	p := FuzzyDateParser{}
	require.True(t, p.Supported())

	tests := []struct {
		text string
		want core.Date
	}{
		{"Date: 2025-03-15 Total $4.00", core.NewDate(2025, 3, 15)},
		{"03/15/2025", core.NewDate(2025, 3, 15)},
		{"Paid on 15 Mar 2025, thanks", core.NewDate(2025, 3, 15)},
		{"Date: 15/03/2024", core.NewDate(2024, 3, 15)},
		{"04/05/2024", core.NewDate(2024, 4, 5)},
	}
	for _, tt := range tests {
		got, ok := p.Parse(tt.text)
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	_, ok := p.Parse("nothing here")
	assert.False(t, ok)
	_, ok = p.Parse("")
	assert.False(t, ok)
}

func TestNoDateParser(t *testing.T) {
	p := NoDateParser{}
	assert.False(t, p.Supported())
	_, ok := p.Parse("2025-01-01")
	assert.False(t, ok)
}

func TestDraft(t *testing.T) {
	e := NewExtractor(FuzzyDateParser{}, nil)
	text := "CAFE MOCHA\n2025-03-15\nTotal ₹250.00"

	d := e.Draft(text, nil)
	assert.Equal(t, text, d.RawText)
	require.NotNil(t, d.CandidateAmount)
	assert.Equal(t, 250.0, *d.CandidateAmount)
	require.NotNil(t, d.CandidateDate)
	assert.Equal(t, core.NewDate(2025, 3, 15), *d.CandidateDate)
	require.NotNil(t, d.CandidateCategory)
	assert.Equal(t, "Food", *d.CandidateCategory)
	assert.Equal(t, "CAFE MOCHA 2025-03-15 Total ₹250.00", d.CandidateDescription)
}

func TestDraftDayFirstDate(t *testing.T) {
	d := NewExtractor(FuzzyDateParser{}, nil).Draft("SWIGGY ORDER\nDate: 15/03/2024\nTotal Rs 450.00", nil)
	require.NotNil(t, d.CandidateAmount)
	assert.Equal(t, 450.0, *d.CandidateAmount)
	require.NotNil(t, d.CandidateDate)
	assert.Equal(t, core.NewDate(2024, 3, 15), *d.CandidateDate)
}

func TestDraftFieldsAreIndependent(t *testing.T) {
	e := NewExtractor(NoDateParser{}, nil)
	d := e.Draft("Receipt 2025-03-15 Total $9.99", nil)
	require.NotNil(t, d.CandidateAmount)
	assert.Equal(t, 9.99, *d.CandidateAmount)
	assert.Nil(t, d.CandidateDate)
	assert.False(t, e.DatesSupported())

	d = NewExtractor(FuzzyDateParser{}, nil).Draft("thanks for visiting", nil)
	assert.Nil(t, d.CandidateAmount)
	assert.Nil(t, d.CandidateDate)
	require.NotNil(t, d.CandidateCategory)
	assert.Equal(t, "Other", *d.CandidateCategory)
}

func TestDraftUsesHistory(t *testing.T) {
	e := NewExtractor(nil, nil)
	history := []core.Record{{Amount: 3, Category: "Pets", Date: core.NewDate(2025, 1, 1), Description: "kibble refill"}}
	d := e.Draft("kibble 12.00", history)
	assert.Equal(t, "Pets", *d.CandidateCategory)
}

func TestRecognizers(t *testing.T) {
	_, err := NoRecognizer{}.Recognize(context.Background(), "x.png")
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)
	assert.False(t, NoRecognizer{}.Supported())

	ts := NewTesseract(filepath.Join(t.TempDir(), "no-such-tesseract"))
	assert.False(t, ts.Supported())
	_, err = ts.Recognize(context.Background(), "x.png")
	assert.ErrorIs(t, err, ErrCapabilityUnavailable)

	assert.Equal(t, "tesseract", NewTesseract("").BinaryPath)
}
