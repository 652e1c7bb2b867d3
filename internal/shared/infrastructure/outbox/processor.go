package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

// ProcessorConfig tunes delivery of outbox messages.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int
	// MaxRetries is the number of failed attempts after which a message is
	// dead-lettered. Zero dead-letters on the first failure.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration
	// Retention is how long published messages are kept. Zero disables cleanup.
	Retention       time.Duration
	CleanupInterval time.Duration
	// MaxDrainBatches bounds how many full batches one poll delivers back
	// to back before waiting for the next tick.
	MaxDrainBatches int
}

// DefaultProcessorConfig returns the settings used when configuration
// leaves a field unset.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     5 * time.Second,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		Retention:        7 * 24 * time.Hour,
		CleanupInterval:  24 * time.Hour,
		MaxDrainBatches:  10,
	}
}

// Processor delivers stored item events to the publisher. Each message is
// published at least once; a failed attempt is retried with exponential
// backoff until MaxRetries, then dead-lettered.
type Processor struct {
	repo      Repository
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	clock     domain.Clock
	metrics   observability.Metrics

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	lastCleanup time.Time

	published, failed, dead atomic.Uint64

	statsMu         sync.Mutex
	lastError       string
	lastErrorAt     *time.Time
	lastProcessedAt *time.Time
	oldestPending   *time.Time
	lagSeconds      float64
}

// NewProcessor creates a processor. A nil clock, metrics or logger falls
// back to the system clock, no-op metrics and slog.Default.
func NewProcessor(
	repo Repository,
	publisher eventbus.Publisher,
	config ProcessorConfig,
	clock domain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultProcessorConfig().PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultProcessorConfig().BatchSize
	}
	if config.MaxDrainBatches <= 0 {
		config.MaxDrainBatches = 1
	}
	return &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger,
		clock:     clock,
		metrics:   metrics,
	}
}

// Start polls in a goroutine until Stop is called or ctx is cancelled.
// The first poll happens immediately. Starting twice is a no-op.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running.Store(true)

	go p.run(runCtx, p.done)

	p.logger.Info("outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
	)
	return nil
}

// Stop cancels polling and waits for the batch in flight.
func (p *Processor) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return
	}

	p.cancel()
	<-p.done
	p.cancel = nil
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether the polling loop is active.
func (p *Processor) IsRunning() bool {
	return p.running.Load()
}

func (p *Processor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer p.running.Store(false)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		p.drain(ctx)
		p.maybeCleanup(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drain delivers batches while they come back full.
func (p *Processor) drain(ctx context.Context) {
	for i := 0; i < p.config.MaxDrainBatches; i++ {
		if ctx.Err() != nil {
			return
		}
		n, err := p.processBatch(ctx)
		if err != nil {
			p.logger.Error("failed to process outbox batch", "error", err)
			return
		}
		if n < p.config.BatchSize {
			return
		}
	}
}

// ProcessOnce delivers a single batch synchronously.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	_, err := p.processBatch(ctx)
	return err
}

func (p *Processor) processBatch(ctx context.Context) (int, error) {
	messages, err := p.repo.GetUnpublished(ctx, p.clock.Now(), p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return 0, err
	}
	p.notePoll(messages)

	for _, msg := range messages {
		p.settle(ctx, msg, p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload))
	}
	return len(messages), nil
}

// settle records the result of one publish attempt.
func (p *Processor) settle(ctx context.Context, msg *Message, publishErr error) {
	now := p.clock.Now()
	routingKey := observability.T("routing_key", msg.RoutingKey)

	if publishErr == nil {
		if err := p.repo.MarkPublished(ctx, msg.ID, now); err != nil {
			// the message stays pending and is published again
			p.logger.Error("failed to mark message as published", "id", msg.ID, "event_id", msg.EventID, "error", err)
			return
		}
		p.published.Add(1)
		p.metrics.Counter(observability.MetricOutboxPublished, 1, routingKey)
		return
	}

	trace := traceOf(msg)
	p.logger.Warn("failed to publish message",
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"attempt", msg.RetryCount+1,
		"correlation_id", trace.CorrelationID,
		"causation_id", trace.CausationID,
		"source", trace.Source,
		"error", publishErr,
	)
	p.noteError(publishErr)

	if msg.LastAttempt(p.config.MaxRetries) {
		p.dead.Add(1)
		p.metrics.Counter(observability.MetricOutboxDead, 1, routingKey)
		if err := p.repo.MarkDead(ctx, msg.ID, publishErr.Error(), now); err != nil {
			p.logger.Error("failed to dead-letter message", "id", msg.ID, "error", err)
		}
		return
	}

	p.failed.Add(1)
	p.metrics.Counter(observability.MetricOutboxFailed, 1, routingKey)
	nextRetryAt := now.Add(p.backoff(msg.RetryCount))
	if err := p.repo.MarkFailed(ctx, msg.ID, publishErr.Error(), nextRetryAt); err != nil {
		p.logger.Error("failed to schedule message retry", "id", msg.ID, "error", err)
	}
}

// backoff is the delay after the (priorFailures+1)-th failed attempt:
// base, 2*base, 4*base and so on, capped at RetryBackoffMax.
func (p *Processor) backoff(priorFailures int) time.Duration {
	base, ceiling := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}

	delay := base
	for i := 0; i < priorFailures && delay < ceiling; i++ {
		delay *= 2
	}
	return min(delay, ceiling)
}

// traceOf reads the tracing fields stored with a message for logging.
func traceOf(msg *Message) domain.EventMetadata {
	var metadata domain.EventMetadata
	if len(msg.Metadata) > 0 {
		_ = json.Unmarshal(msg.Metadata, &metadata)
	}
	return metadata
}

// Cleanup deletes published messages older than the retention period.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteOld(ctx, p.clock.Now().Add(-p.config.Retention))
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		p.logger.Info("outbox cleanup", "deleted", deleted)
	}
	return deleted, nil
}

func (p *Processor) maybeCleanup(ctx context.Context) {
	if p.config.Retention <= 0 || p.config.CleanupInterval <= 0 {
		return
	}
	now := p.clock.Now()
	if !p.lastCleanup.IsZero() && now.Sub(p.lastCleanup) < p.config.CleanupInterval {
		return
	}
	p.lastCleanup = now
	if _, err := p.Cleanup(ctx); err != nil {
		p.logger.Error("failed to clean up outbox", "error", err)
	}
}

// Stats is a snapshot of delivery progress.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

// GetStats returns a snapshot of delivery progress.
func (p *Processor) GetStats() Stats {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	return Stats{
		IsRunning:       p.IsRunning(),
		PublishedCount:  p.published.Load(),
		FailedCount:     p.failed.Load(),
		DeadCount:       p.dead.Load(),
		LagSeconds:      p.lagSeconds,
		LastError:       p.lastError,
		LastErrorAt:     p.lastErrorAt,
		LastProcessedAt: p.lastProcessedAt,
		OldestMessageAt: p.oldestPending,
	}
}

func (p *Processor) noteError(err error) {
	now := p.clock.Now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.lastError = err.Error()
	p.lastErrorAt = &now
}

// notePoll records when the outbox was last read and how far behind the
// oldest pending message is.
func (p *Processor) notePoll(messages []*Message) {
	now := p.clock.Now()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()

	p.lastProcessedAt = &now
	p.oldestPending = nil
	p.lagSeconds = 0
	for _, msg := range messages {
		if p.oldestPending == nil || msg.CreatedAt.Before(*p.oldestPending) {
			oldest := msg.CreatedAt
			p.oldestPending = &oldest
		}
	}
	if p.oldestPending != nil {
		p.lagSeconds = now.Sub(*p.oldestPending).Seconds()
	}
}
