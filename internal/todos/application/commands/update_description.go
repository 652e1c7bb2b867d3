package commands

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/todolist/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/google/uuid"
)

// UpdateDescriptionCommand contains the data needed to change a description.
type UpdateDescriptionCommand struct {
	ItemID      uuid.UUID
	Description string
}

// Validate checks the fields every adapter must supply.
func (c UpdateDescriptionCommand) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return &ValidationError{Fields: map[string]string{"description": MsgDescriptionMustNotBeEmpty}}
	}
	return nil
}

// UpdateDescriptionHandler handles the UpdateDescriptionCommand.
type UpdateDescriptionHandler struct {
	writer itemWriter
	uow    application.UnitOfWork
	clock  sharedDomain.Clock
}

// NewUpdateDescriptionHandler creates a new UpdateDescriptionHandler.
func NewUpdateDescriptionHandler(
	repo item.Repository,
	outboxRepo outbox.Repository,
	uow application.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
) *UpdateDescriptionHandler {
	return &UpdateDescriptionHandler{
		writer: newItemWriter(repo, outboxRepo, metrics),
		uow:    uow,
		clock:  clock,
	}
}

// Handle replaces the description unless the item is, or has just become,
// past due.
func (h *UpdateDescriptionHandler) Handle(ctx context.Context, cmd UpdateDescriptionCommand) (*item.Item, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var updated *item.Item
	err := application.WithUnitOfWorkOutcome(ctx, h.uow, func(txCtx context.Context) (error, error) {
		i, err := h.writer.load(txCtx, cmd.ItemID)
		if err != nil {
			return nil, err
		}

		now := h.clock.Now()
		if outcome, err := h.writer.guard(txCtx, i, now, MsgDescriptionWhilePastDue); outcome != nil || err != nil {
			return outcome, err
		}

		if err := i.ChangeDescription(cmd.Description, now); err != nil {
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
	return updated, nil
}
