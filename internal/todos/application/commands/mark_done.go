package commands

import (
	"context"

	"github.com/felixgeelhaar/todolist/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/google/uuid"
)

// MarkDoneCommand identifies the item to mark as done.
type MarkDoneCommand struct {
	ItemID uuid.UUID
}

// MarkDoneHandler handles the MarkDoneCommand.
type MarkDoneHandler struct {
	writer itemWriter
	uow    application.UnitOfWork
	clock  sharedDomain.Clock
}

// NewMarkDoneHandler creates a new MarkDoneHandler.
func NewMarkDoneHandler(
	repo item.Repository,
	outboxRepo outbox.Repository,
	uow application.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
) *MarkDoneHandler {
	return &MarkDoneHandler{
		writer: newItemWriter(repo, outboxRepo, metrics),
		uow:    uow,
		clock:  clock,
	}
}

// Handle moves the item to DONE. An item that is already DONE is refused
// before the due-date guard runs, and nothing is written.
func (h *MarkDoneHandler) Handle(ctx context.Context, cmd MarkDoneCommand) (*item.Item, error) {
	var updated *item.Item
	err := application.WithUnitOfWorkOutcome(ctx, h.uow, func(txCtx context.Context) (error, error) {
		i, err := h.writer.load(txCtx, cmd.ItemID)
		if err != nil {
			return nil, err
		}
		if i.IsDone() {
			return nil, h.writer.refuse(MsgAlreadyDone, item.ErrAlreadyDone)
		}

		now := h.clock.Now()
		if outcome, err := h.writer.guard(txCtx, i, now, MsgDoneWhilePastDue); outcome != nil || err != nil {
			return outcome, err
		}

		if err := i.MarkDone(now); err != nil {
			return nil, err
		}
		if err := h.writer.save(txCtx, i); err != nil {
			return nil, err
		}
		updated = i
		return nil, nil
	})
	if err != nil {
		return nil, h.writer.translate(err)
	}

	h.writer.metrics.Counter(observability.MetricItemsDone, 1)
	return updated, nil
}
