package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done <id-or-prefix>",
	Short: "Mark an item as done",
	Long: `Mark an item as done using its id or the first few characters of it.

An item whose due date has passed cannot be marked; it is moved to
PAST_DUE instead and the command fails.

Examples:
  todolist done 7f1c9a52       # Complete the item starting with 7f1c9a52
  todolist done 7f1c9a52-...   # Full id`,
	Aliases: []string{"complete", "x"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, args[0], "Item done.", func(ctx context.Context, app *App, id uuid.UUID) (*item.Item, error) {
			return app.MarkDoneHandler.Handle(ctx, commands.MarkDoneCommand{ItemID: id})
		})
	},
}

var notDoneCmd = &cobra.Command{
	Use:     "not-done <id-or-prefix>",
	Short:   "Reopen a done item",
	Aliases: []string{"reopen"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transition(cmd, args[0], "Item reopened.", func(ctx context.Context, app *App, id uuid.UUID) (*item.Item, error) {
			return app.MarkNotDoneHandler.Handle(ctx, commands.MarkNotDoneCommand{ItemID: id})
		})
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <id-or-prefix> <description...>",
	Short: "Change an item's description",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		description := strings.Join(args[1:], " ")
		return transition(cmd, args[0], "Description updated.", func(ctx context.Context, app *App, id uuid.UUID) (*item.Item, error) {
			return app.UpdateDescriptionHandler.Handle(ctx, commands.UpdateDescriptionCommand{
				ItemID:      id,
				Description: description,
			})
		})
	},
}

type itemOperation func(ctx context.Context, app *App, id uuid.UUID) (*item.Item, error)

func transition(cmd *cobra.Command, rawID, success string, op itemOperation) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	id, err := resolveItemID(ctx, app, rawID)
	if err != nil {
		return err
	}

	updated, err := op(ctx, app, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !jsonOutput {
		fmt.Fprintln(out, success)
	}
	return printItem(out, queries.ToItemDTO(updated))
}

func init() {
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(notDoneCmd)
	rootCmd.AddCommand(describeCmd)
}
