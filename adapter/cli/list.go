package cli

import (
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/spf13/cobra"
)

var (
	listNotDone bool
	listPage    int
	listSize    int
	listSort    []string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	Long: `List items one page at a time.

Sort Options:
  --sort property[,ASC|DESC], repeatable. Properties: id, description,
  status, creationDate, dueDate, doneDate.

Examples:
  todolist list                           # first page, creation order
  todolist list --not-done                # only NOT_DONE items
  todolist list --sort dueDate,DESC       # latest due first
  todolist list --page 1 --size 5`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		request, err := app.pageRequest(listPage, listSize, listSort)
		if err != nil {
			return err
		}

		page, err := app.ListItemsHandler.Handle(cmd.Context(), queries.ListItemsQuery{
			NotDoneOnly: listNotDone,
			Page:        request,
		})
		if err != nil {
			return err
		}

		title := "Items"
		if listNotDone {
			title = "Not done items"
		}
		return printPage(cmd.OutOrStdout(), title, &page)
	},
}

// pageRequest applies the same bounds as the HTTP API: a negative page is
// the first page and the size falls back to the default or is capped.
func (a *App) pageRequest(page, size int, sort []string) (item.PageRequest, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = a.DefaultPageSize
	}
	if size > a.MaxPageSize {
		size = a.MaxPageSize
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

func init() {
	listCmd.Flags().BoolVar(&listNotDone, "not-done", false, "only list NOT_DONE items")
	listCmd.Flags().IntVar(&listPage, "page", 0, "zero-based page index")
	listCmd.Flags().IntVar(&listSize, "size", 0, "page size (default from PAGE_DEFAULT_SIZE)")
	listCmd.Flags().StringArrayVar(&listSort, "sort", nil, "sort order, property[,ASC|DESC]")
	rootCmd.AddCommand(listCmd)
}
