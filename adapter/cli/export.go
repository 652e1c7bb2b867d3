package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/spf13/cobra"
)

var (
	exportFormat  string
	exportOutput  string
	exportNotDone bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export items as iCalendar to-dos or JSON",
	Long: `Export every item to ICS (iCalendar VTODO) for calendar and task apps,
or to JSON.

Examples:
  todolist export                         # ICS to stdout
  todolist export -o todos.ics            # ICS to a file
  todolist export --format json --not-done`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := requireApp()
		if err != nil {
			return err
		}

		items, err := collectItems(cmd.Context(), app, exportNotDone)
		if err != nil {
			return err
		}

		var content string
		switch exportFormat {
		case "ics", "ical":
			// a VCALENDAR needs at least one component
			if len(items) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "No items to export.")
				return nil
			}
			if content, err = generateICS(items, app.Clock.Now()); err != nil {
				return err
			}
		case "json":
			out := make([]itemJSON, 0, len(items))
			for _, dto := range items {
				out = append(out, toItemJSON(dto))
			}
			var b strings.Builder
			if err := writeJSON(&b, out); err != nil {
				return err
			}
			content = b.String()
		default:
			return fmt.Errorf("unsupported format: %s (supported: ics, json)", exportFormat)
		}

		if exportOutput == "" {
			fmt.Fprint(cmd.OutOrStdout(), content)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d items to %s\n", len(items), exportOutput)
		return nil
	},
}

// collectItems walks every page of the listing.
func collectItems(ctx context.Context, app *App, notDoneOnly bool) ([]queries.ItemDTO, error) {
	var items []queries.ItemDTO
	for pageIndex := 0; ; pageIndex++ {
		request, err := app.pageRequest(pageIndex, app.MaxPageSize, nil)
		if err != nil {
			return nil, err
		}
		page, err := app.ListItemsHandler.Handle(ctx, queries.ListItemsQuery{
			NotDoneOnly: notDoneOnly,
			Page:        request,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list items: %w", err)
		}
		items = append(items, page.Items...)
		if page.Last || len(page.Items) == 0 {
			return items, nil
		}
	}
}

const icsProductID = "-//todolist//todolist CLI//EN"

// generateICS renders items as VTODO components.
func generateICS(items []queries.ItemDTO, now time.Time) (string, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, icsProductID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText("X-WR-CALNAME", "todolist")

	for _, dto := range items {
		cal.Children = append(cal.Children, toDoComponent(dto, now))
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("failed to encode calendar: %w", err)
	}
	return buf.String(), nil
}

func toDoComponent(dto queries.ItemDTO, now time.Time) *ical.Component {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, dto.ID.String()+"@todolist")
	todo.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	todo.Props.SetDateTime(ical.PropCreated, dto.CreationDate.UTC())
	todo.Props.SetDateTime(ical.PropDue, dto.DueDate.UTC())
	todo.Props.SetText(ical.PropSummary, dto.Description)

	switch dto.Status {
	case "DONE":
		todo.Props.SetText(ical.PropStatus, "COMPLETED")
		if dto.DoneDate != nil {
			todo.Props.SetDateTime(ical.PropCompleted, dto.DoneDate.UTC())
		}
	case "PAST_DUE":
		todo.Props.SetText(ical.PropStatus, "CANCELLED")
		todo.Props.SetText(ical.PropCategories, "PAST_DUE")
	default:
		todo.Props.SetText(ical.PropStatus, "NEEDS-ACTION")
	}
	return todo
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "ics", "export format (ics, json)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().BoolVar(&exportNotDone, "not-done", false, "only export NOT_DONE items")
	rootCmd.AddCommand(exportCmd)
}
