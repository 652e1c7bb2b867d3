package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// ErrBusClosed is returned by Publish after Close.
var ErrBusClosed = errors.New("event bus closed")

// InProcessEventBus is the Publisher used when no broker is configured. It
// decodes each outbox envelope and delivers it synchronously to the
// registered consumers.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	closed   atomic.Bool
}

// NewInProcessEventBus creates a bus with an empty registry.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer subscribes consumer to its event types.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Registry exposes the subscriptions.
func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Publish delivers payload to the subscribers of routingKey. Malformed
// payloads and consumer failures are logged and swallowed: the outbox
// treats the message as published either way.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	if b.closed.Load() {
		return ErrBusClosed
	}

	var event ConsumedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		b.logger.Error("dropping malformed event", "routing_key", routingKey, "error", err)
		return nil
	}
	if event.EventType == "" {
		event.EventType = routingKey
	}

	start := time.Now()
	err := b.registry.Dispatch(ctx, &event)
	attrs := []any{
		"routing_key", routingKey,
		"event_id", event.EventID,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		b.logger.Error("event dispatch failed", append(attrs, "error", err)...)
		return nil
	}
	b.logger.Debug("event dispatched", attrs...)
	return nil
}

// Close makes later publishes fail with ErrBusClosed.
func (b *InProcessEventBus) Close() error {
	b.closed.Store(true)
	return nil
}
