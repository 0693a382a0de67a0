package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"spendlens/internal/analytics"
	"spendlens/internal/core"
)

// maxJSONBody bounds request bodies other than uploads.
const maxJSONBody = 1 << 20

// DecodeJSON reads exactly one JSON value from the body into v. Unknown
// fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("request body must hold a single JSON value")
	}
	return nil
}

// ParseFilter reads the record filter from query parameters. category may
// repeat or hold a comma separated list.
func ParseFilter(q url.Values) (analytics.Filter, error) {
	var f analytics.Filter
	for _, v := range q["category"] {
		for _, c := range strings.Split(v, ",") {
			if c = sanitizeInput(c); c != "" {
				f.Categories = append(f.Categories, c)
			}
		}
	}

	var err error
	if f.From, err = optionalDate(q, "from"); err != nil {
		return f, err
	}
	if f.To, err = optionalDate(q, "to"); err != nil {
		return f, err
	}
	if f.MinAmount, err = optionalFloat(q, "min"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = optionalFloat(q, "max"); err != nil {
		return f, err
	}
	if f.From != nil && f.To != nil && f.To.Before(f.From.Time) {
		return f, fmt.Errorf("from must not be after to")
	}
	return f, nil
}

func optionalDate(q url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return &d, nil
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &f, nil
}

// QueryInt returns the integer under key, or def when absent.
func QueryInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// QueryBool treats 1, true, yes and on as true.
func QueryBool(q url.Values, key string) bool {
	switch strings.ToLower(strings.TrimSpace(q.Get(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// QueryFloats parses a comma separated list of numbers. Absent means nil.
func QueryFloats(q url.Values, key string) ([]float64, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return nil, nil
	}
	parts := strings.Split(v, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a comma separated list of numbers", key)
		}
		out = append(out, f)
	}
	return out, nil
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
