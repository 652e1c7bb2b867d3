package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

// AddItemCommand contains the data needed to add an item. A zero DueDate
// means the caller sent none.
type AddItemCommand struct {
	Description string
	DueDate     time.Time
}

// Validate checks the fields every adapter must supply.
func (c AddItemCommand) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Description) == "" {
		fields["description"] = MsgDescriptionMustNotBeEmpty
	}
	if c.DueDate.IsZero() {
		fields["dueDate"] = MsgDueDateMustNotBeNull
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// AddItemHandler handles the AddItemCommand.
type AddItemHandler struct {
	writer itemWriter
	uow    application.UnitOfWork
	clock  sharedDomain.Clock
}

// NewAddItemHandler creates a new AddItemHandler.
func NewAddItemHandler(
	repo item.Repository,
	outboxRepo outbox.Repository,
	uow application.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
) *AddItemHandler {
	return &AddItemHandler{
		writer: newItemWriter(repo, outboxRepo, metrics),
		uow:    uow,
		clock:  clock,
	}
}

// Handle creates a NOT_DONE item due at cmd.DueDate.
func (h *AddItemHandler) Handle(ctx context.Context, cmd AddItemCommand) (*item.Item, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	i, err := item.NewItem(cmd.Description, cmd.DueDate, h.clock.Now())
	if err != nil {
		if errors.Is(err, item.ErrDueDateNotInFuture) {
			return nil, h.writer.refuse(MsgAddDueDateNotInFuture, err)
		}
		return nil, err
	}

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		return h.writer.save(txCtx, i)
	})
	if err != nil {
		return nil, err
	}

	h.writer.metrics.Counter(observability.MetricItemsAdded, 1)
	return i, nil
}
