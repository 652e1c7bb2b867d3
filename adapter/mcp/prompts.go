package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{{
			Role:    string(mcp.RoleUser),
			Content: mcp.TextContent{Type: "text", Text: text},
		}},
	}
}

// RegisterPrompts registers prompts for common todo workflows.
func RegisterPrompts(srv *mcp.Server) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("todo_review").
		Description("Walk through open todo items and decide what to finish, reword, or let lapse.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Todo Review", reviewPromptText), nil
		})

	srv.Prompt("todo_capture").
		Description("Turn a free-form note into todo items with due dates.").
		Argument("note", "What needs doing, in your own words", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			note := args["note"]
			if note == "" {
				note = "[describe what needs doing]"
			}
			return userPrompt("Todo Capture", fmt.Sprintf(capturePromptText, note)), nil
		})

	return nil
}

const reviewPromptText = `Help me review my todo list. Please:

1. Read the todolist://items/not-done resource to see what is still open
2. Point out items whose due date is close or already behind us

Then, for each open item, suggest one of:
- mark it done with todo.mark_done if I say it is finished
- reword it with todo.update_description if it is unclear

Items that are past due can no longer be changed; mention them so I can add a fresh item with todo.add if the work still matters.`

const capturePromptText = `Turn this note into todo items:

%s

Split it into separate items where it mentions separate pieces of work. For each one propose a short description and a due date in ISO-8601 UTC, such as 2024-03-18T09:00:00Z. A due date must be in the future.

Show me the list first. Once I confirm, create each item with todo.add.`
