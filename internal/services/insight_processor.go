package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/core"
	"spendlens/internal/insights"
	"spendlens/internal/log"
	"spendlens/internal/storage"
)

// InsightSink receives each report the processor generates.
type InsightSink interface {
	InsightsGenerated(report insights.Report, recordCount int)
}

// InsightProcessor recomputes insights from the shared store whenever a
// records-changed event arrives.
type InsightProcessor struct {
	store  storage.Store
	budget float64
	sink   InsightSink
	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	lastRev uint64
	lastAt  time.Time
	last    *insights.Report
}

func NewInsightProcessor(store storage.Store, budget float64, sink InsightSink, logger *log.Logger) *InsightProcessor {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightProcessor{
		store:  store,
		budget: budget,
		sink:   sink,
		now:    time.Now,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Handle processes one event. Events older than the last processed one are
// skipped. Too few records is not an error.
func (p *InsightProcessor) Handle(ctx context.Context, msg *amqp.RecordsChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stale(msg) {
		p.logger.DebugContext(ctx, "Skipping stale change event", log.FieldRevision, msg.Revision)
		return nil
	}

	records, err := p.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	p.lastRev = msg.Revision
	p.lastAt = msg.Timestamp

	report, err := insights.Generate(records, core.DateOf(p.now()), p.budget)
	if errors.Is(err, insights.ErrInsufficientData) {
		p.logger.InfoContext(ctx, "Not enough records for insights",
			log.FieldCount, len(records), "required", insights.MinRecords)
		p.last = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("generate insights: %w", err)
	}

	p.last = &report
	for _, s := range report.Signals {
		p.logger.InfoContext(ctx, s.Message,
			"kind", s.Kind,
			log.FieldRevision, msg.Revision,
			log.FieldOperation, log.OpInsights)
	}
	if report.Budget != nil {
		p.logger.InfoContext(ctx, "Budget projection",
			"band", report.Budget.Band,
			"progress", report.Budget.Progress,
			"projected_monthly", report.Budget.ProjectedMonthly)
	}
	if p.sink != nil {
		p.sink.InsightsGenerated(report, len(records))
	}
	return nil
}

// Last returns the most recent report, if the last run produced one.
func (p *InsightProcessor) Last() (insights.Report, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return insights.Report{}, false
	}
	return *p.last, true
}

// stale reports whether msg predates the last processed event. Revisions
// restart with the publishing process, so the timestamp breaks ties.
func (p *InsightProcessor) stale(msg *amqp.RecordsChangedMessage) bool {
	if p.lastAt.IsZero() {
		return false
	}
	return msg.Revision <= p.lastRev && !msg.Timestamp.After(p.lastAt)
}
