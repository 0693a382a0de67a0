package core

import (
	"strings"
	"unicode/utf8"
)

// MaxDraftDescription caps the candidate description taken from receipt text.
const MaxDraftDescription = 400

type (
	// ExtractionDraft is the unconfirmed result of reading a receipt. It is
	// never stored; it only prefills a RecordInput.
	ExtractionDraft struct {
		RawText              string   `json:"raw_text"`
		CandidateAmount      *float64 `json:"candidate_amount"`
		CandidateDate        *Date    `json:"candidate_date"`
		CandidateCategory    *string  `json:"candidate_category"`
		CandidateDescription string   `json:"candidate_description"`
	}

	// DraftEdits are the user's corrections applied on top of a draft.
	DraftEdits struct {
		Amount      *float64 `json:"amount,omitempty"`
		Category    *string  `json:"category,omitempty"`
		Date        *string  `json:"date,omitempty"`
		Description *string  `json:"description,omitempty"`
	}
)

// DraftDescription collapses newlines to spaces and truncates to
// MaxDraftDescription characters.
func DraftDescription(raw string) string {
	s := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(raw)
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxDraftDescription {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:MaxDraftDescription]))
}

// Merge overlays edits on the draft candidates. Fields with neither a
// candidate nor an edit are left zero so validation rejects them.
func (d ExtractionDraft) Merge(e DraftEdits, fallbackDate Date) RecordInput {
	in := RecordInput{
		Description: d.CandidateDescription,
		Date:        fallbackDate.String(),
	}
	if d.CandidateAmount != nil {
		in.Amount = *d.CandidateAmount
	}
	if d.CandidateDate != nil {
		in.Date = d.CandidateDate.String()
	}
	if d.CandidateCategory != nil {
		in.Category = *d.CandidateCategory
	}

	if e.Amount != nil {
		in.Amount = *e.Amount
	}
	if e.Category != nil {
		in.Category = *e.Category
	}
	if e.Date != nil {
		in.Date = *e.Date
	}
	if e.Description != nil {
		in.Description = *e.Description
	}
	return in
}
