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

// MarkNotDoneCommand identifies the item to reopen.
type MarkNotDoneCommand struct {
	ItemID uuid.UUID
}

// MarkNotDoneHandler handles the MarkNotDoneCommand.
type MarkNotDoneHandler struct {
	writer itemWriter
	uow    application.UnitOfWork
	clock  sharedDomain.Clock
}

// NewMarkNotDoneHandler creates a new MarkNotDoneHandler.
func NewMarkNotDoneHandler(
	repo item.Repository,
	outboxRepo outbox.Repository,
	uow application.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
) *MarkNotDoneHandler {
	return &MarkNotDoneHandler{
		writer: newItemWriter(repo, outboxRepo, metrics),
		uow:    uow,
		clock:  clock,
	}
}

// Handle moves the item back to NOT_DONE and clears its done date.
func (h *MarkNotDoneHandler) Handle(ctx context.Context, cmd MarkNotDoneCommand) (*item.Item, error) {
	var updated *item.Item
	err := application.WithUnitOfWorkOutcome(ctx, h.uow, func(txCtx context.Context) (error, error) {
		i, err := h.writer.load(txCtx, cmd.ItemID)
		if err != nil {
			return nil, err
		}
		if i.Status() == item.StatusNotDone {
			return nil, h.writer.refuse(MsgAlreadyNotDone, item.ErrAlreadyNotDone)
		}

		now := h.clock.Now()
		if outcome, err := h.writer.guard(txCtx, i, now, MsgNotDoneWhilePastDue); outcome != nil || err != nil {
			return outcome, err
		}

		if err := i.MarkNotDone(now); err != nil {
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

	h.writer.metrics.Counter(observability.MetricItemsNotDone, 1)
	return updated, nil
}
