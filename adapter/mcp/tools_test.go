package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryRepo is a minimal item.Repository for exercising the tools.
type memoryRepo struct {
	items map[uuid.UUID]*item.Item
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: map[uuid.UUID]*item.Item{}}
}

func (r *memoryRepo) Save(_ context.Context, i *item.Item) error {
	r.items[i.ID()] = i
	return nil
}

func (r *memoryRepo) FindByID(_ context.Context, id uuid.UUID) (*item.Item, error) {
	return r.items[id], nil
}

func (r *memoryRepo) List(_ context.Context, req item.PageRequest) (item.Page, error) {
	return r.page(req, func(*item.Item) bool { return true }), nil
}

func (r *memoryRepo) ListByStatus(_ context.Context, status item.Status, req item.PageRequest) (item.Page, error) {
	return r.page(req, func(i *item.Item) bool { return i.Status() == status }), nil
}

func (r *memoryRepo) page(req item.PageRequest, keep func(*item.Item) bool) item.Page {
	var matched []*item.Item
	for _, i := range r.items {
		if keep(i) {
			matched = append(matched, i)
		}
	}
	return item.Page{Items: matched, Request: req, Total: int64(len(matched))}
}

func (r *memoryRepo) MarkPastDue(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for _, i := range r.items {
		if i.Status() == item.StatusNotDone && !i.DueDate().After(cutoff) {
			i.EnforceDueDate(cutoff)
			n++
		}
	}
	return n, nil
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (noopUnitOfWork) Commit(context.Context) error                       { return nil }
func (noopUnitOfWork) Rollback(context.Context) error                     { return nil }

func newTestDeps() (ToolDependencies, *domain.FixedClock) {
	repo := newMemoryRepo()
	outboxRepo := outbox.NewInMemoryRepository()
	uow := noopUnitOfWork{}
	clock := domain.NewFixedClock(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC))

	return ToolDependencies{
		AddItem:           commands.NewAddItemHandler(repo, outboxRepo, uow, clock, nil),
		UpdateDescription: commands.NewUpdateDescriptionHandler(repo, outboxRepo, uow, clock, nil),
		MarkDone:          commands.NewMarkDoneHandler(repo, outboxRepo, uow, clock, nil),
		MarkNotDone:       commands.NewMarkNotDoneHandler(repo, outboxRepo, uow, clock, nil),
		SweepPastDue:      commands.NewSweepPastDueHandler(repo, outboxRepo, uow, clock, nil),
		GetItem:           queries.NewGetItemHandler(repo),
		ListItems:         queries.NewListItemsHandler(repo),
	}, clock
}

func TestRegisterTools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	deps, _ := newTestDeps()
	require.NoError(t, RegisterTools(srv, deps))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := map[any]bool{}
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{
		"todo.add", "todo.get", "todo.list", "todo.list_not_done",
		"todo.update_description", "todo.mark_done", "todo.mark_not_done", "todo.sweep",
	} {
		assert.True(t, names[want], "%s should be registered", want)
	}
}

func TestRegisterTools_RequiresHandlers(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})

	assert.Error(t, RegisterTools(nil, ToolDependencies{}))
	assert.Error(t, RegisterTools(srv, ToolDependencies{}))
}

func TestTodoTools_Lifecycle(t *testing.T) {
	deps, clock := newTestDeps()
	tools := todoTools{deps: deps}
	ctx := context.Background()

	created, err := tools.add(ctx, itemAddInput{Description: "buy milk", DueDate: "2024-03-18T00:00:00"})
	require.NoError(t, err)
	assert.Equal(t, "NOT_DONE", created.Status)
	assert.Equal(t, time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC), created.DueDate)

	done, err := tools.markDone(ctx, itemIDInput{ItemID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "DONE", done.Status)

	_, err = tools.markDone(ctx, itemIDInput{ItemID: created.ID})
	require.EqualError(t, err, commands.MsgAlreadyDone)

	reopened, err := tools.markNotDone(ctx, itemIDInput{ItemID: created.ID})
	require.NoError(t, err)
	assert.Nil(t, reopened.DoneDate)

	renamed, err := tools.updateDescription(ctx, itemDescriptionInput{ItemID: created.ID, Description: "buy oat milk"})
	require.NoError(t, err)
	assert.Equal(t, "buy oat milk", renamed.Description)

	page, err := tools.listNotDone(ctx, itemListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 12, page.Size)

	clock.Advance(48 * time.Hour)
	swept, err := tools.sweep(ctx, struct{}{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept.Swept)

	got, err := tools.get(ctx, itemIDInput{ItemID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, "PAST_DUE", got.Status)
}

func TestTodoTools_InputErrors(t *testing.T) {
	deps, _ := newTestDeps()
	tools := todoTools{deps: deps}
	ctx := context.Background()

	_, err := tools.add(ctx, itemAddInput{Description: "x", DueDate: "next week"})
	assert.ErrorContains(t, err, "invalid due date")

	_, err = tools.add(ctx, itemAddInput{Description: "x", DueDate: "2024-03-16T00:00:00Z"})
	assert.EqualError(t, err, commands.MsgAddDueDateNotInFuture)

	_, err = tools.get(ctx, itemIDInput{ItemID: "nope"})
	assert.ErrorContains(t, err, "invalid id")

	missing := uuid.New()
	_, err = tools.get(ctx, itemIDInput{ItemID: missing.String()})
	assert.EqualError(t, err, "Item not found with given id: "+missing.String())

	_, err = tools.list(ctx, itemListInput{Sort: []string{"owner"}})
	assert.ErrorIs(t, err, item.ErrInvalidSort)
}

func TestRegisterResourcesAndPrompts(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:         "test",
		Version:      "1.0.0",
		Capabilities: mcp.Capabilities{Resources: true, Prompts: true},
	})
	deps, _ := newTestDeps()

	require.NoError(t, RegisterResources(srv, deps))
	require.NoError(t, RegisterPrompts(srv))

	content, err := listingResource(context.Background(), deps, "todolist://items", false)
	require.NoError(t, err)
	assert.Equal(t, "application/json", content.MimeType)
	assert.Contains(t, content.Text, `"items": []`)
}

func TestUserPrompt(t *testing.T) {
	result := userPrompt("Todo Capture", fmt.Sprintf(capturePromptText, "call the bank"))

	require.Len(t, result.Messages, 1)
	assert.Equal(t, "Todo Capture", result.Description)
	raw, err := json.Marshal(result.Messages[0].Content)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "call the bank")
	assert.Contains(t, string(raw), "todo.add")
}
