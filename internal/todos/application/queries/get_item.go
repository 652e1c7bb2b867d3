package queries

import (
	"context"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
)

// GetItemQuery contains the parameters for getting a single item.
type GetItemQuery struct {
	ItemID uuid.UUID
}

// GetItemHandler handles the GetItemQuery.
type GetItemHandler struct {
	repo item.Repository
}

// NewGetItemHandler creates a new GetItemHandler.
func NewGetItemHandler(repo item.Repository) *GetItemHandler {
	return &GetItemHandler{repo: repo}
}

// Handle executes the GetItemQuery. Reads never run the due-date guard, so
// an overdue item keeps its stored status until something writes it.
func (h *GetItemHandler) Handle(ctx context.Context, query GetItemQuery) (*ItemDTO, error) {
	i, err := h.repo.FindByID(ctx, query.ItemID)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &commands.NotFoundError{ID: query.ItemID}
	}

	dto := ToItemDTO(i)
	return &dto, nil
}
