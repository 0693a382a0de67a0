package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"spendlens/internal/core"
	"spendlens/internal/extract"
	"spendlens/internal/insights"
	"spendlens/internal/services"
)

// Error codes sent in ErrorBody.Code.
const (
	CodeValidation       = "validation_failed"
	CodePersistence      = "persistence_failed"
	CodeInsufficientData = "insufficient_data"
	CodeInvalidTarget    = "invalid_target"
	CodeNotFound         = "not_found"
	CodeUnsupported      = "capability_unavailable"
	CodeBadRequest       = "bad_request"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal_error"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Code: code})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, CodeBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, CodeNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, CodeInternal, message)
}

// ErrorFor maps a service error to its response. Unknown errors become 500
// without leaking their text.
func ErrorFor(err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	var perr *core.PersistenceError
	switch {
	case errors.As(err, &verr):
		return NewJSONResponse().
			Status(http.StatusUnprocessableEntity).
			Body(ErrorBody{Error: verr.Err.Error(), Code: CodeValidation, Field: verr.Field})
	case errors.As(err, &perr):
		return ErrorResponse(http.StatusServiceUnavailable, CodePersistence, "storage unavailable, nothing was changed")
	case errors.Is(err, insights.ErrInsufficientData):
		return ErrorResponse(http.StatusConflict, CodeInsufficientData, err.Error())
	case errors.Is(err, insights.ErrInvalidTarget):
		return ErrorResponse(http.StatusUnprocessableEntity, CodeInvalidTarget, err.Error())
	case errors.Is(err, services.ErrRecordNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, extract.ErrCapabilityUnavailable):
		return ErrorResponse(http.StatusNotImplemented, CodeUnsupported, err.Error())
	default:
		return InternalServerError("internal error")
	}
}
