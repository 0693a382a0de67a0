package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"spendlens/internal/core"
	"spendlens/internal/extract"
	"spendlens/internal/insights"
	"spendlens/internal/services"
)

func TestJSONResponseBuilder(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/records/1").
		Body(map[string]int{"n": 1}).
		Write(rr)

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
	if rr.Header().Get("Location") != "/records/1" {
		t.Errorf("location header missing")
	}
	var got map[string]int
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil || got["n"] != 1 {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	rr := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(rr)
	if rr.Code != http.StatusNoContent || rr.Body.Len() != 0 {
		t.Errorf("status=%d body=%q", rr.Code, rr.Body.String())
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity, CodeValidation},
		{"persistence", &core.PersistenceError{Op: "save", Err: errors.New("disk")}, http.StatusServiceUnavailable, CodePersistence},
		{"insufficient", fmt.Errorf("insights: %w", insights.ErrInsufficientData), http.StatusConflict, CodeInsufficientData},
		{"invalid target", insights.ErrInvalidTarget, http.StatusUnprocessableEntity, CodeInvalidTarget},
		{"not found", fmt.Errorf("%w: abc", services.ErrRecordNotFound), http.StatusNotFound, CodeNotFound},
		{"no ocr", extract.ErrCapabilityUnavailable, http.StatusNotImplemented, CodeUnsupported},
		{"unknown", errors.New("secret detail"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			ErrorFor(tt.err).Write(rr)
			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			var body ErrorBody
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if tt.name == "unknown" && body.Error == "secret detail" {
				t.Error("internal error text leaked")
			}
			if tt.name == "validation" && body.Field != "amount" {
				t.Errorf("field = %q", body.Field)
			}
		})
	}
}
