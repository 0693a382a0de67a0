package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"spendlens/internal/core"
)

// DateParser finds a calendar date in free text.
type DateParser interface {
	Supported() bool
	Parse(text string) (core.Date, bool)
}

// dateCandidates are tried in order before the whole text.
var dateCandidates = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`),
}

// FuzzyDateParser scans text for date-shaped substrings and hands them to
// dateparse. Ambiguous numeric dates are read month first; a date that is
// only valid day first, like 15/03/2024, is read that way.
type FuzzyDateParser struct{}

func (FuzzyDateParser) Supported() bool { return true }

func (p FuzzyDateParser) Parse(text string) (core.Date, bool) {
	for _, re := range dateCandidates {
		for _, candidate := range re.FindAllString(text, -1) {
			if d, ok := parseOne(candidate); ok {
				return d, true
			}
		}
	}
	return parseOne(strings.TrimSpace(text))
}

// parseOne never panics; dateparse has been known to on odd input.
func parseOne(s string) (d core.Date, ok bool) {
	if s == "" {
		return core.Date{}, false
	}
	defer func() {
		if r := recover(); r != nil {
			d, ok = core.Date{}, false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC, dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return core.Date{}, false
	}
	return core.DateOf(t), true
}

// NoDateParser is used when date parsing is switched off.
type NoDateParser struct{}

func (NoDateParser) Supported() bool { return false }
func (NoDateParser) Parse(string) (core.Date, bool) { return core.Date{}, false }
