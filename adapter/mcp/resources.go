package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
)

// RegisterResources exposes the first page of each listing as a resource.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if deps.ListItems == nil {
		return fmt.Errorf("list handler is required")
	}

	srv.Resource("todolist://items").
		Name("Todo items").
		Description("First page of all todo items, soonest due first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return listingResource(ctx, deps, uri, false)
		})

	srv.Resource("todolist://items/not-done").
		Name("Open todo items").
		Description("First page of todo items that are not done, soonest due first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			return listingResource(ctx, deps, uri, true)
		})

	return nil
}

func listingResource(ctx context.Context, deps ToolDependencies, uri string, notDoneOnly bool) (*mcp.ResourceContent, error) {
	req, err := deps.pageRequest(0, 0, []string{string(item.SortByDueDate)})
	if err != nil {
		return nil, err
	}
	page, err := deps.ListItems.Handle(mcpContext(ctx), queries.ListItemsQuery{NotDoneOnly: notDoneOnly, Page: req})
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(toPageOutput(page), "", "  ")
	if err != nil {
		return nil, err
	}

	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
