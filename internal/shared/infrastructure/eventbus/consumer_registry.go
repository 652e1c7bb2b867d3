package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// AllEvents subscribes a consumer to every routing key.
const AllEvents = "*"

// ConsumerRegistry routes consumed events to the consumers subscribed to
// their routing key, plus any AllEvents consumers.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	routes map[string][]EventConsumer
	logger *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		routes: make(map[string][]EventConsumer),
		logger: logger,
	}
}

// Register subscribes consumer to each of its event types. A consumer
// listing the same type twice is subscribed once.
func (r *ConsumerRegistry) Register(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, key := range consumer.EventTypes() {
		if slices.Contains(r.routes[key], consumer) {
			continue
		}
		r.routes[key] = append(r.routes[key], consumer)
		r.logger.Debug("consumer subscribed", "routing_key", key)
	}
}

// Subscribers returns the consumers an event with the given routing key
// reaches, in registration order with AllEvents consumers last.
func (r *ConsumerRegistry) Subscribers(routingKey string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := slices.Clone(r.routes[routingKey])
	if routingKey != AllEvents {
		out = append(out, r.routes[AllEvents]...)
	}
	return out
}

// EventTypes returns the sorted routing keys with at least one subscriber.
func (r *ConsumerRegistry) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.routes))
	for key := range r.routes {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// ConsumerCount returns the number of subscriptions.
func (r *ConsumerRegistry) ConsumerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, consumers := range r.routes {
		n += len(consumers)
	}
	return n
}

// Dispatch hands event to every subscriber. A failing consumer does not stop
// the others; all failures are joined into the returned error.
func (r *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	consumers := r.Subscribers(event.EventType)
	if len(consumers) == 0 {
		r.logger.Debug("no subscribers", "routing_key", event.EventType)
		return nil
	}

	var errs []error
	for _, consumer := range consumers {
		if err := consumer.Handle(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", consumer, err))
		}
	}
	return errors.Join(errs...)
}
