package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02 15:04 MST"

// itemJSON mirrors the HTTP representation of an item.
type itemJSON struct {
	ID           uuid.UUID  `json:"id"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	CreationDate time.Time  `json:"creationDate"`
	DueDate      time.Time  `json:"dueDate"`
	DoneDate     *time.Time `json:"doneDate"`
}

type pageJSON struct {
	Items      []itemJSON `json:"items"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
}

func toItemJSON(dto queries.ItemDTO) itemJSON {
	out := itemJSON{
		ID:           dto.ID,
		Description:  dto.Description,
		Status:       dto.Status,
		CreationDate: dto.CreationDate.UTC(),
		DueDate:      dto.DueDate.UTC(),
	}
	if dto.DoneDate != nil {
		done := dto.DoneDate.UTC()
		out.DoneDate = &done
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printItem(w io.Writer, dto queries.ItemDTO) error {
	if jsonOutput {
		return writeJSON(w, toItemJSON(dto))
	}
	fmt.Fprintf(w, "  ID:          %s\n", dto.ID)
	fmt.Fprintf(w, "  Description: %s\n", dto.Description)
	fmt.Fprintf(w, "  Status:      %s\n", dto.Status)
	fmt.Fprintf(w, "  Created:     %s\n", dto.CreationDate.UTC().Format(dateLayout))
	fmt.Fprintf(w, "  Due:         %s\n", dto.DueDate.UTC().Format(dateLayout))
	if dto.DoneDate != nil {
		fmt.Fprintf(w, "  Done:        %s\n", dto.DoneDate.UTC().Format(dateLayout))
	}
	return nil
}

func printPage(w io.Writer, title string, page *queries.PageDTO) error {
	if jsonOutput {
		out := pageJSON{
			Items:      make([]itemJSON, 0, len(page.Items)),
			Page:       page.Page,
			Size:       page.Size,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		}
		for _, dto := range page.Items {
			out.Items = append(out.Items, toItemJSON(dto))
		}
		return writeJSON(w, out)
	}

	if page.Total == 0 {
		fmt.Fprintln(w, "No items found.")
		return nil
	}

	fmt.Fprintf(w, "%s (%d, page %d of %d):\n", title, page.Total, page.Page+1, page.TotalPages)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, dto := range page.Items {
		fmt.Fprintf(w, "  %s %-8s due %s  %s\n",
			statusIcon(dto.Status),
			dto.ID.String()[:8],
			dto.DueDate.UTC().Format(dateLayout),
			dto.Description,
		)
	}
	return nil
}

func statusIcon(status string) string {
	switch status {
	case "DONE":
		return "[x]"
	case "PAST_DUE":
		return "[!]"
	default:
		return "[ ]"
	}
}

func parseItemID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id %q: %w", raw, err)
	}
	return id, nil
}
