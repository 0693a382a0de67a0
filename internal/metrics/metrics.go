// Package metrics exposes Prometheus collectors for the server and worker.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"spendlens/internal/cache"
	"spendlens/internal/classify"
	"spendlens/internal/core"
	"spendlens/internal/insights"
	"spendlens/internal/services"
)

const namespace = "spendlens"

// Metrics owns a private registry so tests and multiple instances don't
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	rateLimited     prometheus.Counter
	ledgerWrites    *prometheus.CounterVec
	ledgerRecords   prometheus.Gauge
	ledgerRevision  prometheus.Gauge
	ledgerTotal     prometheus.Gauge
	viewLookups     *prometheus.CounterVec
	classifications *prometheus.CounterVec
	drafts          *prometheus.CounterVec
	signals         *prometheus.CounterVec
	budgetProgress  prometheus.Gauge
	budgetProjected prometheus.Gauge
	insightRecords  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		ledgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "writes_total",
			Help: "Committed ledger changes by operation.",
		}, []string{"operation"}),
		ledgerRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "records",
			Help: "Records in the collection.",
		}),
		ledgerRevision: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "revision",
			Help: "Current ledger revision.",
		}),
		ledgerTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "amount_total",
			Help: "Sum of all record amounts.",
		}),
		viewLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "views", Name: "lookups_total",
			Help: "View cache lookups by view and result.",
		}, []string{"view", "result"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "classifier", Name: "results_total",
			Help: "Classifications by deciding source.",
		}, []string{"source"}),
		drafts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "extract", Name: "drafts_total",
			Help: "Extraction drafts by origin and whether an amount was found.",
		}, []string{"origin", "amount_found"}),
		signals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "insights", Name: "signals_total",
			Help: "Insight signals emitted by kind.",
		}, []string{"kind"}),
		budgetProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "insights", Name: "budget_progress_ratio",
			Help: "Total spend divided by the budget target.",
		}),
		budgetProjected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "insights", Name: "projected_monthly",
			Help: "Projected monthly spend.",
		}),
		insightRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "insights", Name: "records",
			Help: "Records used by the last insight run.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration, m.rateLimited,
		m.ledgerWrites, m.ledgerRecords, m.ledgerRevision, m.ledgerTotal,
		m.viewLookups, m.classifications, m.drafts,
		m.signals, m.budgetProgress, m.budgetProjected, m.insightRecords,
	)
	return m
}

// Registry returns the registry all collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RecordRequest(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Inc()
}

// LedgerChanged is a ledger subscriber.
func (m *Metrics) LedgerChanged(_ context.Context, c services.Change) {
	m.ledgerWrites.WithLabelValues(c.Operation).Inc()
	m.ledgerRecords.Set(float64(len(c.Records)))
	m.ledgerRevision.Set(float64(c.Revision))
	m.ledgerTotal.Set(core.Total(c.Records))
}

func (m *Metrics) ViewLookup(view string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.viewLookups.WithLabelValues(view, result).Inc()
}

func (m *Metrics) Classified(source classify.Source) {
	m.classifications.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) DraftProduced(origin string, d core.ExtractionDraft) {
	m.drafts.WithLabelValues(origin, strconv.FormatBool(d.CandidateAmount != nil)).Inc()
}

func (m *Metrics) InsightsGenerated(report insights.Report, recordCount int) {
	for _, s := range report.Signals {
		m.signals.WithLabelValues(string(s.Kind)).Inc()
	}
	m.insightRecords.Set(float64(recordCount))
	if report.Budget != nil {
		m.budgetProgress.Set(report.Budget.Progress)
		m.budgetProjected.Set(report.Budget.ProjectedMonthly)
	}
}

// WatchCache exports the counters of a view cache under name. Values are read
// at scrape time.
func (m *Metrics) WatchCache(name string, stats func() cache.Stats) error {
	labels := prometheus.Labels{"cache": name}
	opts := func(metric, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace: namespace, Subsystem: "cache", Name: metric,
			Help: help, ConstLabels: labels,
		}
	}
	cs := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("entries", "Entries currently cached.")),
			func() float64 { return float64(stats().Entries) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("hits_total", "Cache hits.")),
			func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("misses_total", "Cache misses.")),
			func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("evictions_total", "Entries evicted by size.")),
			func() float64 { return float64(stats().Evictions) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("expired_total", "Entries dropped after their TTL.")),
			func() float64 { return float64(stats().Expired) }),
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return fmt.Errorf("register %s cache metrics: %w", name, err)
		}
	}
	return nil
}

// WatchPublisher exports the count of change events the publisher gave up on.
func (m *Metrics) WatchPublisher(dropped func() uint64) error {
	c := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "changes",
		Name:      "dropped_total",
		Help:      "Change events discarded because the queue was full or publishing kept failing.",
	}, func() float64 { return float64(dropped()) })
	if err := m.registry.Register(c); err != nil {
		return fmt.Errorf("register publisher metrics: %w", err)
	}
	return nil
}

var (
	_ services.Observer    = (*Metrics)(nil)
	_ services.InsightSink = (*Metrics)(nil)
)
