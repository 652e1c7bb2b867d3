package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

// SweepResult reports one sweep.
type SweepResult struct {
	Cutoff time.Time
	Count  int64
}

// SweepPastDueHandler moves every overdue NOT_DONE item to PAST_DUE with a
// single set-based update. It skips the per-item guard; the statement itself
// decides which rows change.
type SweepPastDueHandler struct {
	repo       item.Repository
	outboxRepo outbox.Repository
	uow        application.UnitOfWork
	clock      sharedDomain.Clock
	metrics    observability.Metrics
}

// NewSweepPastDueHandler creates a new SweepPastDueHandler.
func NewSweepPastDueHandler(
	repo item.Repository,
	outboxRepo outbox.Repository,
	uow application.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
) *SweepPastDueHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &SweepPastDueHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clock,
		metrics:    metrics,
	}
}

// Handle runs the sweep at the clock's current time. A non-empty sweep
// queues one todo.items.swept event in the same transaction.
func (h *SweepPastDueHandler) Handle(ctx context.Context) (SweepResult, error) {
	result := SweepResult{Cutoff: h.clock.Now()}

	err := application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		count, err := h.repo.MarkPastDue(txCtx, result.Cutoff)
		if err != nil {
			return err
		}
		result.Count = count
		if count == 0 {
			return nil
		}

		event := item.NewItemsSwept(result.Cutoff, count)
		application.ApplyEventMetadata([]sharedDomain.DomainEvent{event}, application.NewEventMetadata(txCtx))
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return err
		}
		return h.outboxRepo.Save(txCtx, msg)
	})
	if err != nil {
		return SweepResult{Cutoff: result.Cutoff}, err
	}

	if result.Count > 0 {
		h.metrics.Counter(observability.MetricItemsPastDue, result.Count, observability.T("via", "sweep"))
	}
	return result, nil
}
