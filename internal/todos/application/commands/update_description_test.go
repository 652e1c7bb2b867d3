package commands

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdateDescriptionHandler_Handle(t *testing.T) {
	t.Run("changes the description", func(t *testing.T) {
		repo := new(mockItemRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewUpdateDescriptionHandler(repo, outboxRepo, uow, newFixedClock(), nil)

		ctx, txCtx := newTestContexts()
		existing := storedItem(item.StatusDone, testNow.Add(time.Hour))

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByID", txCtx, existing.ID()).Return(existing, nil)
		repo.On("Save", txCtx, existing).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.Anything).Return(nil)

		got, err := handler.Handle(ctx, UpdateDescriptionCommand{ItemID: existing.ID(), Description: "buy oat milk"})

		require.NoError(t, err)
		assert.Equal(t, "buy oat milk", got.Description())
		assert.Equal(t, item.StatusDone, got.Status())
		assert.Equal(t, testNow, got.UpdatedAt())
	})

	t.Run("blank description is a validation error", func(t *testing.T) {
		uow := new(mockUnitOfWork)
		handler := NewUpdateDescriptionHandler(new(mockItemRepo), new(mockOutboxRepo), uow, newFixedClock(), nil)

		_, err := handler.Handle(t.Context(), UpdateDescriptionCommand{ItemID: uuid.New(), Description: " "})

		var validation *ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, MsgDescriptionMustNotBeEmpty, validation.Fields["description"])
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("overdue item is corrected and refused", func(t *testing.T) {
		repo := new(mockItemRepo)
		outboxRepo := new(mockOutboxRepo)
		uow := new(mockUnitOfWork)
		handler := NewUpdateDescriptionHandler(repo, outboxRepo, uow, newFixedClock(), nil)

		ctx, txCtx := newTestContexts()
		existing := storedItem(item.StatusNotDone, testNow.Add(-time.Minute))

		uow.On("Begin", ctx).Return(txCtx, nil)
		uow.On("Commit", txCtx).Return(nil)
		repo.On("FindByID", txCtx, existing.ID()).Return(existing, nil)
		repo.On("Save", txCtx, existing).Return(nil)
		outboxRepo.On("SaveBatch", txCtx, mock.Anything).Return(nil)

		_, err := handler.Handle(ctx, UpdateDescriptionCommand{ItemID: existing.ID(), Description: "new"})

		require.EqualError(t, err, MsgDescriptionWhilePastDue)
		assert.Equal(t, item.StatusPastDue, existing.Status())
		assert.Equal(t, "buy milk", existing.Description())
		repo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("every guarded operation leaves an overdue item past due", func(t *testing.T) {
		run := map[string]func(h handlers, id uuid.UUID) error{
			"description": func(h handlers, id uuid.UUID) error {
				_, err := h.describe.Handle(t.Context(), UpdateDescriptionCommand{ItemID: id, Description: "x"})
				return err
			},
			"done": func(h handlers, id uuid.UUID) error {
				_, err := h.done.Handle(t.Context(), MarkDoneCommand{ItemID: id})
				return err
			},
		}

		for name, call := range run {
			t.Run(name, func(t *testing.T) {
				repo := new(mockItemRepo)
				outboxRepo := new(mockOutboxRepo)
				uow := new(mockUnitOfWork)
				existing := storedItem(item.StatusNotDone, testNow.Add(-time.Hour))

				uow.On("Begin", mock.Anything).Return(t.Context(), nil)
				uow.On("Commit", mock.Anything).Return(nil)
				repo.On("FindByID", mock.Anything, existing.ID()).Return(existing, nil)
				repo.On("Save", mock.Anything, existing).Return(nil)
				outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

				h := newHandlers(repo, outboxRepo, uow)
				err := call(h, existing.ID())

				assert.True(t, IsConflict(err))
				assert.Equal(t, item.StatusPastDue, existing.Status())

				// a second attempt sees PAST_DUE and writes nothing more
				err = call(h, existing.ID())
				assert.True(t, IsConflict(err))
				repo.AssertNumberOfCalls(t, "Save", 1)
			})
		}
	})
}

type handlers struct {
	describe *UpdateDescriptionHandler
	done     *MarkDoneHandler
}

func newHandlers(repo *mockItemRepo, outboxRepo *mockOutboxRepo, uow *mockUnitOfWork) handlers {
	clock := newFixedClock()
	return handlers{
		describe: NewUpdateDescriptionHandler(repo, outboxRepo, uow, clock, nil),
		done:     NewMarkDoneHandler(repo, outboxRepo, uow, clock, nil),
	}
}
