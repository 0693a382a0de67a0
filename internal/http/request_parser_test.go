package http

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		wantErr bool
	}{
		{
			name:  "empty query matches everything",
			query: url.Values{},
		},
		{
			name:  "categories repeat and split on commas",
			query: url.Values{"category": {"Food,Bills", " Transport "}},
		},
		{
			name:  "dates and amounts",
			query: url.Values{"from": {"2025-01-01"}, "to": {"2025-01-31"}, "min": {"5"}, "max": {"99.5"}},
		},
		{name: "bad from", query: url.Values{"from": {"01/01/2025"}}, wantErr: true},
		{name: "bad min", query: url.Values{"min": {"five"}}, wantErr: true},
		{name: "inverted range", query: url.Values{"from": {"2025-02-01"}, "to": {"2025-01-01"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.query)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tt.query) == 0 && !f.IsZero() {
				t.Errorf("filter should be zero, got %+v", f)
			}
		})
	}

	f, _ := ParseFilter(url.Values{"category": {"Food,Bills", " Transport "}})
	if got := strings.Join(f.Categories, "|"); got != "Food|Bills|Transport" {
		t.Errorf("categories = %q", got)
	}
	f, _ = ParseFilter(url.Values{"min": {"5"}, "to": {"2025-01-31"}})
	if f.MinAmount == nil || *f.MinAmount != 5 || f.To == nil || f.To.String() != "2025-01-31" {
		t.Errorf("filter = %+v", f)
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Text string `json:"text"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"text":"hi"}`, false},
		{"empty", ``, true},
		{"unknown field", `{"text":"hi","extra":1}`, true},
		{"trailing value", `{"text":"a"}{"text":"b"}`, true},
		{"malformed", `{"text":`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			err := DecodeJSON(httptest.NewRecorder(), r, &v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	q := url.Values{"n": {"3"}, "bad": {"x"}, "flag": {"TRUE"}, "edges": {"0.25, 0.5,0.75"}}

	if n, err := QueryInt(q, "n", 5); err != nil || n != 3 {
		t.Errorf("QueryInt n = %d, %v", n, err)
	}
	if n, err := QueryInt(q, "missing", 5); err != nil || n != 5 {
		t.Errorf("QueryInt default = %d, %v", n, err)
	}
	if _, err := QueryInt(q, "bad", 5); err == nil {
		t.Error("QueryInt should reject non-integers")
	}

	if !QueryBool(q, "flag") || QueryBool(q, "missing") {
		t.Error("QueryBool mismatch")
	}

	edges, err := QueryFloats(q, "edges")
	if err != nil || len(edges) != 3 || edges[1] != 0.5 {
		t.Errorf("QueryFloats = %v, %v", edges, err)
	}
	if edges, _ := QueryFloats(q, "missing"); edges != nil {
		t.Errorf("absent edges should be nil, got %v", edges)
	}
	if _, err := QueryFloats(q, "bad"); err == nil {
		t.Error("QueryFloats should reject non-numbers")
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  lunch  ", "lunch"},
		{"a\x00b\x07c", "abc"},
		{"line1\nline2\ttab", "line1\nline2\ttab"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
