package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
)

// ToolDependencies provides the handlers the MCP tools call. They are the
// same handlers the HTTP API uses.
type ToolDependencies struct {
	AddItem           *commands.AddItemHandler
	UpdateDescription *commands.UpdateDescriptionHandler
	MarkDone          *commands.MarkDoneHandler
	MarkNotDone       *commands.MarkNotDoneHandler
	SweepPastDue      *commands.SweepPastDueHandler
	GetItem           *queries.GetItemHandler
	ListItems         *queries.ListItemsHandler

	// DefaultPageSize applies when a list call gives no size.
	DefaultPageSize int
	MaxPageSize     int
}

func (d ToolDependencies) pageBounds() (int, int) {
	size, maxSize := d.DefaultPageSize, d.MaxPageSize
	if size <= 0 {
		size = 12
	}
	if maxSize <= 0 {
		maxSize = 100
	}
	return size, maxSize
}

func (d ToolDependencies) pageRequest(page, size int, sort []string) (item.PageRequest, error) {
	defaultSize, maxSize := d.pageBounds()
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > maxSize {
		size = maxSize
	}

	orders := make([]item.Order, 0, len(sort))
	for _, raw := range sort {
		order, err := item.ParseOrder(raw)
		if err != nil {
			return item.PageRequest{}, err
		}
		orders = append(orders, order)
	}
	return item.NewPageRequest(page, size, orders...)
}

// RegisterTools registers the todo tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.AddItem == nil || deps.GetItem == nil || deps.ListItems == nil {
		return errors.New("item handlers are required")
	}

	return registerTodoTools(srv, deps)
}
