package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/google/uuid"
)

type itemAddInput struct {
	Description string `json:"description" jsonschema:"required"`
	DueDate     string `json:"due_date" jsonschema:"required"`
}

type itemIDInput struct {
	ItemID string `json:"item_id" jsonschema:"required"`
}

type itemDescriptionInput struct {
	ItemID      string `json:"item_id" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
}

type itemListInput struct {
	Page int      `json:"page,omitempty"`
	Size int      `json:"size,omitempty"`
	Sort []string `json:"sort,omitempty"`
}

type itemOutput struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	CreationDate time.Time  `json:"creation_date"`
	DueDate      time.Time  `json:"due_date"`
	DoneDate     *time.Time `json:"done_date,omitempty"`
}

type pageOutput struct {
	Items      []itemOutput `json:"items"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"total_pages"`
}

type sweepOutput struct {
	Cutoff time.Time `json:"cutoff"`
	Swept  int64     `json:"swept"`
}

func toItemOutput(dto queries.ItemDTO) *itemOutput {
	return &itemOutput{
		ID:           dto.ID.String(),
		Description:  dto.Description,
		Status:       dto.Status,
		CreationDate: dto.CreationDate,
		DueDate:      dto.DueDate,
		DoneDate:     dto.DoneDate,
	}
}

func toPageOutput(p queries.PageDTO) *pageOutput {
	items := make([]itemOutput, 0, len(p.Items))
	for _, dto := range p.Items {
		items = append(items, *toItemOutput(dto))
	}
	return &pageOutput{Items: items, Page: p.Page, Size: p.Size, Total: p.Total, TotalPages: p.TotalPages}
}

type todoTools struct {
	deps ToolDependencies
}

func registerTodoTools(srv *mcp.Server, deps ToolDependencies) error {
	t := todoTools{deps: deps}

	srv.Tool("todo.add").
		Description("Add a todo item. The due date must lie in the future.").
		Handler(t.add)

	srv.Tool("todo.get").
		Description("Get a todo item by id").
		Handler(t.get)

	srv.Tool("todo.list").
		Description("List todo items, one page at a time. Sort entries look like \"dueDate,DESC\".").
		Handler(t.list)

	srv.Tool("todo.list_not_done").
		Description("List todo items that are not done").
		Handler(t.listNotDone)

	srv.Tool("todo.update_description").
		Description("Change the description of a todo item").
		Handler(t.updateDescription)

	srv.Tool("todo.mark_done").
		Description("Mark a todo item as done").
		Handler(t.markDone)

	srv.Tool("todo.mark_not_done").
		Description("Mark a done todo item as not done again").
		Handler(t.markNotDone)

	srv.Tool("todo.sweep").
		Description("Move every overdue item that is not done to past due").
		Handler(t.sweep)

	return nil
}

func mcpContext(ctx context.Context) context.Context {
	return observability.WithSource(observability.NewRequestContext(ctx, ""), "mcp")
}

func (t todoTools) add(ctx context.Context, input itemAddInput) (*itemOutput, error) {
	due, err := parseDateTime(input.DueDate)
	if err != nil {
		return nil, err
	}
	created, err := t.deps.AddItem.Handle(mcpContext(ctx), commands.AddItemCommand{
		Description: input.Description,
		DueDate:     due,
	})
	if err != nil {
		return nil, err
	}
	return toItemOutput(queries.ToItemDTO(created)), nil
}

func (t todoTools) get(ctx context.Context, input itemIDInput) (*itemOutput, error) {
	id, err := parseUUID(input.ItemID)
	if err != nil {
		return nil, err
	}
	dto, err := t.deps.GetItem.Handle(mcpContext(ctx), queries.GetItemQuery{ItemID: id})
	if err != nil {
		return nil, err
	}
	return toItemOutput(*dto), nil
}

func (t todoTools) list(ctx context.Context, input itemListInput) (*pageOutput, error) {
	return t.page(ctx, input, false)
}

func (t todoTools) listNotDone(ctx context.Context, input itemListInput) (*pageOutput, error) {
	return t.page(ctx, input, true)
}

func (t todoTools) page(ctx context.Context, input itemListInput, notDoneOnly bool) (*pageOutput, error) {
	req, err := t.deps.pageRequest(input.Page, input.Size, input.Sort)
	if err != nil {
		return nil, err
	}
	page, err := t.deps.ListItems.Handle(mcpContext(ctx), queries.ListItemsQuery{NotDoneOnly: notDoneOnly, Page: req})
	if err != nil {
		return nil, err
	}
	return toPageOutput(page), nil
}

func (t todoTools) updateDescription(ctx context.Context, input itemDescriptionInput) (*itemOutput, error) {
	if t.deps.UpdateDescription == nil {
		return nil, errors.New("description updates are not available")
	}
	id, err := parseUUID(input.ItemID)
	if err != nil {
		return nil, err
	}
	updated, err := t.deps.UpdateDescription.Handle(mcpContext(ctx), commands.UpdateDescriptionCommand{
		ItemID:      id,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}
	return toItemOutput(queries.ToItemDTO(updated)), nil
}

func (t todoTools) markDone(ctx context.Context, input itemIDInput) (*itemOutput, error) {
	if t.deps.MarkDone == nil {
		return nil, errors.New("mark done is not available")
	}
	return t.transition(ctx, input, func(ctx context.Context, id uuid.UUID) (*item.Item, error) {
		return t.deps.MarkDone.Handle(ctx, commands.MarkDoneCommand{ItemID: id})
	})
}

func (t todoTools) markNotDone(ctx context.Context, input itemIDInput) (*itemOutput, error) {
	if t.deps.MarkNotDone == nil {
		return nil, errors.New("mark not done is not available")
	}
	return t.transition(ctx, input, func(ctx context.Context, id uuid.UUID) (*item.Item, error) {
		return t.deps.MarkNotDone.Handle(ctx, commands.MarkNotDoneCommand{ItemID: id})
	})
}

func (t todoTools) transition(
	ctx context.Context,
	input itemIDInput,
	fn func(ctx context.Context, id uuid.UUID) (*item.Item, error),
) (*itemOutput, error) {
	id, err := parseUUID(input.ItemID)
	if err != nil {
		return nil, err
	}
	updated, err := fn(mcpContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return toItemOutput(queries.ToItemDTO(updated)), nil
}

func (t todoTools) sweep(ctx context.Context, _ struct{}) (*sweepOutput, error) {
	if t.deps.SweepPastDue == nil {
		return nil, errors.New("sweep is not available")
	}
	result, err := t.deps.SweepPastDue.Handle(mcpContext(ctx))
	if err != nil {
		return nil, err
	}
	return &sweepOutput{Cutoff: result.Cutoff, Swept: result.Count}, nil
}
