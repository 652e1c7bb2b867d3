package queries

import (
	"context"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
)

// ListItemsQuery contains the parameters for listing items.
type ListItemsQuery struct {
	NotDoneOnly bool
	Page        item.PageRequest
}

// ListItemsHandler handles the ListItemsQuery.
type ListItemsHandler struct {
	repo item.Repository
}

// NewListItemsHandler creates a new ListItemsHandler.
func NewListItemsHandler(repo item.Repository) *ListItemsHandler {
	return &ListItemsHandler{repo: repo}
}

// Handle executes the ListItemsQuery. The status filter is applied by the
// store before the page is cut.
func (h *ListItemsHandler) Handle(ctx context.Context, query ListItemsQuery) (PageDTO, error) {
	var (
		page item.Page
		err  error
	)
	if query.NotDoneOnly {
		page, err = h.repo.ListByStatus(ctx, item.StatusNotDone, query.Page)
	} else {
		page, err = h.repo.List(ctx, query.Page)
	}
	if err != nil {
		return PageDTO{}, err
	}
	return toPageDTO(page), nil
}
