package commands

import (
	"context"
	"errors"
	"time"

	sharedApplication "github.com/felixgeelhaar/todolist/internal/shared/application"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/google/uuid"
)

// itemWriter holds what every item command shares: loading, the due-date
// guard, and saving the item together with its events.
type itemWriter struct {
	repo       item.Repository
	outboxRepo outbox.Repository
	metrics    observability.Metrics
}

func newItemWriter(repo item.Repository, outboxRepo outbox.Repository, metrics observability.Metrics) itemWriter {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return itemWriter{repo: repo, outboxRepo: outboxRepo, metrics: metrics}
}

func (w itemWriter) load(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	i, err := w.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &NotFoundError{ID: id}
	}
	return i, nil
}

// save persists the item and queues its pending events in the outbox.
func (w itemWriter) save(ctx context.Context, i *item.Item) error {
	if err := w.repo.Save(ctx, i); err != nil {
		return err
	}

	events := i.DomainEvents()
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := w.outboxRepo.SaveBatch(ctx, msgs); err != nil {
		return err
	}
	i.ClearDomainEvents()
	return nil
}

// guard applies the due-date check. When the item had to be moved to
// PAST_DUE the correction is saved here and the conflict is handed back as
// the outcome, so it commits before the caller sees the refusal.
func (w itemWriter) guard(ctx context.Context, i *item.Item, now time.Time, message string) (outcome error, err error) {
	corrected, pastDue := i.EnforceDueDate(now)
	if pastDue == nil {
		return nil, nil
	}
	if corrected {
		if err := w.save(ctx, i); err != nil {
			return nil, err
		}
		w.metrics.Counter(observability.MetricItemsPastDue, 1, observability.T("via", "guard"))
	}
	return w.refuse(message, pastDue), nil
}

func (w itemWriter) refuse(message string, cause error) *ConflictError {
	w.metrics.Counter(observability.MetricConflicts, 1, observability.T("reason", reason(cause)))
	return conflict(message, cause)
}

// translate turns a lost optimistic-locking race into a conflict.
func (w itemWriter) translate(err error) error {
	if errors.Is(err, item.ErrConcurrentModification) {
		return w.refuse(MsgConcurrentModification, err)
	}
	return err
}

func reason(err error) string {
	switch {
	case errors.Is(err, item.ErrPastDue):
		return "past_due"
	case errors.Is(err, item.ErrAlreadyDone):
		return "already_done"
	case errors.Is(err, item.ErrAlreadyNotDone):
		return "already_not_done"
	case errors.Is(err, item.ErrDueDateNotInFuture):
		return "due_date"
	case errors.Is(err, item.ErrConcurrentModification):
		return "concurrent"
	default:
		return "other"
	}
}
