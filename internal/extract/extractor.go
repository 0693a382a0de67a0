package extract

import (
	"spendlens/internal/classify"
	"spendlens/internal/core"
)

// Extractor builds reviewable drafts from receipt text.
type Extractor struct {
	dates      DateParser
	classifier *classify.Classifier
}

// NewExtractor wires a date capability and a classifier. A nil parser means
// NoDateParser; a nil classifier means the default keyword table.
func NewExtractor(dates DateParser, classifier *classify.Classifier) *Extractor {
	if dates == nil {
		dates = NoDateParser{}
	}
	if classifier == nil {
		classifier = classify.Default()
	}
	return &Extractor{dates: dates, classifier: classifier}
}

// DatesSupported reports whether drafts can carry a candidate date.
func (e *Extractor) DatesSupported() bool {
	return e.dates.Supported()
}

// Draft extracts candidates from text. Amount and date are found
// independently; either may be nil. The category is always set.
func (e *Extractor) Draft(text string, history []core.Record) core.ExtractionDraft {
	draft := core.ExtractionDraft{
		RawText:              text,
		CandidateDescription: core.DraftDescription(text),
	}
	if amount, ok := ExtractAmount(text); ok {
		draft.CandidateAmount = &amount
	}
	if e.dates.Supported() {
		if d, ok := e.dates.Parse(text); ok {
			draft.CandidateDate = &d
		}
	}
	category := e.classifier.Classify(draft.CandidateDescription, history)
	draft.CandidateCategory = &category
	return draft
}
