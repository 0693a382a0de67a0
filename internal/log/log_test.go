package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentLedger, Output: &buf})
	l.Info("hello", FieldRecordID, "abc")
	assert.Contains(t, buf.String(), "component=ledger")
	assert.Contains(t, buf.String(), "record_id=abc")

	buf.Reset()
	l.WithComponent(ComponentStorage).Warn("careful")
	assert.Contains(t, buf.String(), "component=storage")
	assert.NotContains(t, buf.String(), "component=ledger")
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard()
	assert.Same(t, l, FromContext(NewContext(context.Background(), l)))
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, buf.String(), "request_id=req-1")
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentLedger, Output: &buf}))

	sl.LogRecordWritten(context.Background(), OpCreate, "id-1", 12.5, "Food", "2025-01-02", 3)
	out := buf.String()
	assert.Contains(t, out, "record_id=id-1")
	assert.Contains(t, out, "operation=create")
	assert.Contains(t, out, "revision=3")

	buf.Reset()
	req := httptest.NewRequest(http.MethodGet, "/summary?granularity=daily", nil)
	sl.LogHTTPEnd(context.Background(), req, http.StatusServiceUnavailable, 12, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "status_code=503")

	buf.Reset()
	sl.LogError(context.Background(), "save failed", errors.New("disk full"), OpSave, nil)
	assert.Contains(t, buf.String(), `error="disk full"`)
}
