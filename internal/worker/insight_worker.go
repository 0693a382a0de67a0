// Package worker drives background insight generation from change events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
)

// Consumer delivers records-changed events. *amqp.Client satisfies it.
type Consumer interface {
	ConsumeRecordsChanged(ctx context.Context, handler func(context.Context, *amqp.RecordsChangedMessage) error) error
}

// Handler processes one event. *services.InsightProcessor satisfies it.
type Handler interface {
	Handle(ctx context.Context, msg *amqp.RecordsChangedMessage) error
}

// InsightWorker recomputes insights on every change event, and periodically
// so that date-relative signals move with the calendar.
type InsightWorker struct {
	consumer Consumer
	handler  Handler
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
}

func NewInsightWorker(consumer Consumer, handler Handler, interval time.Duration, logger *log.Logger) *InsightWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &InsightWorker{
		consumer: consumer,
		handler:  handler,
		interval: interval,
		now:      time.Now,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRecordsChanged processes a single event from AMQP
func (w *InsightWorker) HandleRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing records changed message",
		log.FieldRevision, msg.Revision,
		log.FieldOperation, msg.Operation,
		log.FieldRecordID, msg.RecordID,
		log.FieldCount, msg.Count)

	if err := w.handler.Handle(ctx, msg); err != nil {
		return fmt.Errorf("handle records changed: %w", err)
	}
	return nil
}

// StartupCheck computes insights once before any event arrives. Useful to
// recover from missed messages or worker downtime.
func (w *InsightWorker) StartupCheck(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Performing startup insight check")
	return w.refresh(ctx, log.OpStartup)
}

// Run consumes events and refreshes on a ticker until ctx is done.
func (w *InsightWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.consumer.ConsumeRecordsChanged(ctx, w.HandleRecordsChanged)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("consume records changed: %w", err)
		}
		return nil
	})

	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if err := w.refresh(ctx, "refresh"); err != nil {
						w.logger.ErrorContext(ctx, "Periodic insight refresh failed", log.FieldError, err)
					}
				}
			}
		})
	}

	return g.Wait()
}

func (w *InsightWorker) refresh(ctx context.Context, op string) error {
	msg := &amqp.RecordsChangedMessage{Operation: op, Timestamp: w.now().UTC()}
	return w.handler.Handle(ctx, msg)
}
