package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of a record date.
const DateLayout = "2006-01-02"

// DefaultDescription replaces an empty description.
const DefaultDescription = "No description"

// Default category vocabulary. Any non-empty category is accepted; this list is
// only what front ends offer first.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryHealth        = "Health"
	CategoryEducation     = "Education"
	CategoryOther         = "Other"
)

// DefaultCategories returns the default vocabulary in display order.
func DefaultCategories() []string {
	return []string{
		CategoryFood, CategoryTransport, CategoryEntertainment, CategoryShopping,
		CategoryBills, CategoryHealth, CategoryEducation, CategoryOther,
	}
}

type (
	Date struct {
		time.Time
	}

	// Record is a single spending entry.
	Record struct {
		ID          string    `json:"id"`
		Amount      float64   `json:"amount"`
		Category    string    `json:"category"`
		Date        Date      `json:"date"`
		Description string    `json:"description"`
		Timestamp   time.Time `json:"timestamp"`
	}

	// RecordInput is the unvalidated form of a record as typed by a user or
	// prefilled from an ExtractionDraft.
	RecordInput struct {
		Amount      float64 `json:"amount"`
		Category    string  `json:"category"`
		Date        string  `json:"date"`
		Description string  `json:"description"`
	}

	// RecordPatch carries the fields an edit replaces. Nil fields are kept.
	RecordPatch struct {
		Amount      *float64 `json:"amount,omitempty"`
		Category    *string  `json:"category,omitempty"`
		Date        *string  `json:"date,omitempty"`
		Description *string  `json:"description,omitempty"`
	}
)

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrInvalidDate   = errors.New("date must be formatted as YYYY-MM-DD")
	ErrEmptyCategory = errors.New("category cannot be empty")
)

// ValidationError reports which field blocked a record from being built.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed load or save at the store boundary.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// DaysUntil returns the number of whole days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(math.Round(other.Sub(d.Time).Hours() / 24))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate builds a Record from raw field values. It is the only way records
// are created, so every stored record satisfies amount > 0, a parseable date
// and a non-empty category.
func Validate(amount float64, category, date, description string) (Record, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return Record{}, &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	d, err := ParseDate(date)
	if err != nil {
		return Record{}, &ValidationError{Field: "date", Err: err}
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return Record{}, &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	description = strings.TrimSpace(description)
	if description == "" {
		description = DefaultDescription
	}
	return Record{
		Amount:      amount,
		Category:    category,
		Date:        d,
		Description: description,
	}, nil
}

// NewRecord validates input and stamps a fresh identity and creation time.
func NewRecord(in RecordInput, now time.Time) (Record, error) {
	r, err := Validate(in.Amount, in.Category, in.Date, in.Description)
	if err != nil {
		return Record{}, err
	}
	r.ID = uuid.NewString()
	r.Timestamp = now.UTC()
	return r, nil
}

// Apply returns a copy of r with the patch applied and re-validated. Identity
// and timestamp are preserved.
func (r Record) Apply(p RecordPatch) (Record, error) {
	in := RecordInput{
		Amount:      r.Amount,
		Category:    r.Category,
		Date:        r.Date.String(),
		Description: r.Description,
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	updated, err := Validate(in.Amount, in.Category, in.Date, in.Description)
	if err != nil {
		return Record{}, err
	}
	updated.ID = r.ID
	updated.Timestamp = r.Timestamp
	return updated, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p RecordPatch) IsEmpty() bool {
	return p.Amount == nil && p.Category == nil && p.Date == nil && p.Description == nil
}

// Amounts returns the amounts of records in order.
func Amounts(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Amount
	}
	return out
}

// Total sums record amounts.
func Total(records []Record) float64 {
	var sum float64
	for _, r := range records {
		sum += r.Amount
	}
	return sum
}
