package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/log"
)

// ChangeSink delivers records-changed events. *amqp.Client satisfies it.
type ChangeSink interface {
	PublishRecordsChanged(ctx context.Context, msg *amqp.RecordsChangedMessage) error
}

// PublisherConfig holds configuration for the change publisher
type PublisherConfig struct {
	// QueueSize bounds pending events; a full queue drops new events (default: 256)
	QueueSize int

	// MaxRetries is the number of publish attempts per event (default: 3)
	MaxRetries int

	// RetryDelay is the wait before the first retry, doubled each attempt (default: 500ms)
	RetryDelay time.Duration
}

func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		QueueSize:  256,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// ChangePublisher forwards ledger changes to a ChangeSink off the write path.
type ChangePublisher struct {
	sink   ChangeSink
	config PublisherConfig
	queue  chan *amqp.RecordsChangedMessage
	logger *log.Logger

	mu      sync.Mutex
	running bool
	dropped uint64
}

func NewChangePublisher(sink ChangeSink, config PublisherConfig, logger *log.Logger) *ChangePublisher {
	def := DefaultPublisherConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = def.RetryDelay
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &ChangePublisher{
		sink:   sink,
		config: config,
		queue:  make(chan *amqp.RecordsChangedMessage, config.QueueSize),
		logger: logger.WithComponent(log.ComponentAMQP),
	}
}

// Notify is a ledger Subscriber. It never blocks.
func (p *ChangePublisher) Notify(ctx context.Context, c Change) {
	msg := amqp.NewRecordsChangedMessage(c.Revision, c.Operation, c.Record.ID, len(c.Records))
	select {
	case p.queue <- msg:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		p.logger.WarnContext(ctx, "Change queue full, event dropped", log.FieldRevision, c.Revision)
	}
}

// Dropped counts events discarded because the queue was full or every
// publish attempt failed.
func (p *ChangePublisher) Dropped() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Run publishes queued events until ctx is done. Returns an error if already running.
func (p *ChangePublisher) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("change publisher is already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.InfoContext(ctx, "Change publisher started", "queue_size", p.config.QueueSize)
	for {
		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "Change publisher stopped", "pending", len(p.queue))
			return nil
		case msg := <-p.queue:
			p.publish(ctx, msg)
		}
	}
}

func (p *ChangePublisher) publish(ctx context.Context, msg *amqp.RecordsChangedMessage) {
	delay := p.config.RetryDelay
	var err error
	for attempt := 1; attempt <= p.config.MaxRetries; attempt++ {
		if err = p.sink.PublishRecordsChanged(ctx, msg); err == nil {
			p.logger.DebugContext(ctx, "Change published", log.FieldRevision, msg.Revision, log.FieldOperation, msg.Operation)
			return
		}
		p.logger.WarnContext(ctx, "Change publish failed",
			log.FieldRevision, msg.Revision,
			"attempt", attempt,
			log.FieldError, err)
		if attempt == p.config.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}

	p.mu.Lock()
	p.dropped++
	p.mu.Unlock()
	p.logger.ErrorContext(ctx, "Change event dropped after max retries",
		log.FieldRevision, msg.Revision,
		"attempts", p.config.MaxRetries,
		log.FieldError, err)
}
