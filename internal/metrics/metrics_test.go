package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendlens/internal/cache"
	"spendlens/internal/classify"
	"spendlens/internal/core"
	"spendlens/internal/insights"
	"spendlens/internal/services"
)

func TestNew(t *testing.T) {
	m := New()
	require.NotNil(t, m)
	require.NotNil(t, m.Registry())

	other := New()
	other.RecordRateLimited()
	assert.Zero(t, testutil.ToFloat64(m.rateLimited), "instances do not share collectors")
}

func TestRecordRequest(t *testing.T) {
	m := New()
	m.RecordRequest("GET", "/records", 200, 10*time.Millisecond)
	m.RecordRequest("GET", "/records", 200, 20*time.Millisecond)
	m.RecordRequest("POST", "/records", 422, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/records", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "/records", "422")))
}

func TestLedgerChanged(t *testing.T) {
	m := New()
	records := []core.Record{{Amount: 10}, {Amount: 32.5}}
	m.LedgerChanged(context.Background(), services.Change{Revision: 4, Operation: "create", Records: records})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerWrites.WithLabelValues("create")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerRecords))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ledgerRevision))
	assert.Equal(t, 42.5, testutil.ToFloat64(m.ledgerTotal))
}

func TestObserverCounters(t *testing.T) {
	m := New()
	m.ViewLookup("summary", true)
	m.ViewLookup("summary", false)
	m.ViewLookup("summary", false)
	m.Classified(classify.SourceKeyword)
	amount := 5.0
	m.DraftProduced("text", core.ExtractionDraft{CandidateAmount: &amount})
	m.DraftProduced("image", core.ExtractionDraft{})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.viewLookups.WithLabelValues("summary", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.viewLookups.WithLabelValues("summary", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifications.WithLabelValues("keyword")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drafts.WithLabelValues("text", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.drafts.WithLabelValues("image", "false")))
}

func TestInsightsGenerated(t *testing.T) {
	m := New()
	m.InsightsGenerated(insights.Report{
		Signals: []insights.Signal{{Kind: insights.KindBalanced}, {Kind: insights.KindSpendingSpike}},
		Budget:  &insights.Projection{Progress: 0.5, ProjectedMonthly: 7500},
	}, 12)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.signals.WithLabelValues("balanced")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.budgetProgress))
	assert.Equal(t, 7500.0, testutil.ToFloat64(m.budgetProjected))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.insightRecords))
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordRequest("GET", "/overall", 200, time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `spendlens_http_requests_total{method="GET",route="/overall",status="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestWatchCache(t *testing.T) {
	m := New()
	views := cache.NewLRUCache[int](1, time.Minute)
	require.NoError(t, m.WatchCache("views", views.Stats))

	views.Set("a", 1)
	views.Set("b", 2)
	_, _ = views.Get("b")
	_, _ = views.Get("a")

	body := scrape(t, m)
	assert.Contains(t, body, `spendlens_cache_entries{cache="views"} 1`)
	assert.Contains(t, body, `spendlens_cache_hits_total{cache="views"} 1`)
	assert.Contains(t, body, `spendlens_cache_misses_total{cache="views"} 1`)
	assert.Contains(t, body, `spendlens_cache_evictions_total{cache="views"} 1`)

	assert.Error(t, m.WatchCache("views", views.Stats), "duplicate registration")
}

func TestWatchPublisher(t *testing.T) {
	m := New()
	var dropped uint64
	require.NoError(t, m.WatchPublisher(func() uint64 { return dropped }))

	assert.Contains(t, scrape(t, m), "spendlens_changes_dropped_total 0")
	dropped = 4
	assert.Contains(t, scrape(t, m), "spendlens_changes_dropped_total 4")
}
