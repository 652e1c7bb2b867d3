package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

// ActivitySubscriber records todo events delivered by the in-process bus.
// It is the local stand-in for a downstream consumer when no broker is
// configured: every event is logged and counted by type.
type ActivitySubscriber struct {
	metrics observability.Metrics
	logger  *slog.Logger
	enabled bool
}

// NewActivitySubscriber creates a new activity subscriber.
func NewActivitySubscriber(metrics observability.Metrics, logger *slog.Logger) *ActivitySubscriber {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivitySubscriber{
		metrics: metrics,
		logger:  logger,
		enabled: true,
	}
}

// SetEnabled enables or disables the subscriber.
func (s *ActivitySubscriber) SetEnabled(enabled bool) {
	s.enabled = enabled
}

// EventTypes returns the event types this subscriber handles.
func (s *ActivitySubscriber) EventTypes() []string {
	return []string{
		item.RoutingKeyAdded,
		item.RoutingKeyDescriptionChanged,
		item.RoutingKeyDone,
		item.RoutingKeyNotDone,
		item.RoutingKeyPastDue,
		item.RoutingKeySwept,
	}
}

// sweptPayload is the data of a todo.items.swept event.
type sweptPayload struct {
	Cutoff time.Time `json:"cutoff"`
	Count  int64     `json:"count"`
}

// Handle processes an event.
func (s *ActivitySubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	if !s.enabled {
		return nil
	}

	s.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("event_type", event.EventType))

	if event.EventType == item.RoutingKeySwept {
		var payload sweptPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			s.logger.WarnContext(ctx, "malformed sweep event",
				"event_id", event.EventID,
				"error", err,
			)
			return nil
		}
		s.logger.InfoContext(ctx, "items swept to past due",
			"event_id", event.EventID,
			"cutoff", payload.Cutoff,
			"count", payload.Count,
		)
		return nil
	}

	s.logger.InfoContext(ctx, "item activity",
		"event_type", event.EventType,
		"event_id", event.EventID,
		"item_id", event.AggregateID,
		"correlation_id", event.Metadata.CorrelationID,
		"source", event.Metadata.Source,
	)
	return nil
}
