package cli

import (
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:     "get <id>",
	Short:   "Show one item",
	Aliases: []string{"show"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		id, err := resolveItemID(cmd.Context(), app, args[0])
		if err != nil {
			return err
		}

		dto, err := app.GetItemHandler.Handle(cmd.Context(), queries.GetItemQuery{ItemID: id})
		if err != nil {
			return err
		}
		return printItem(cmd.OutOrStdout(), *dto)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
