package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/google/uuid"
)

const minPrefixLength = 4

// resolveItemID accepts a full id or a unique prefix of one, as printed by
// list.
func resolveItemID(ctx context.Context, app *App, raw string) (uuid.UUID, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if id, err := uuid.Parse(raw); err == nil {
		return id, nil
	}
	if len(raw) < minPrefixLength {
		return parseItemID(raw)
	}

	var matches []queries.ItemDTO
	for pageIndex := 0; ; pageIndex++ {
		request, err := app.pageRequest(pageIndex, app.MaxPageSize, nil)
		if err != nil {
			return uuid.Nil, err
		}
		page, err := app.ListItemsHandler.Handle(ctx, queries.ListItemsQuery{Page: request})
		if err != nil {
			return uuid.Nil, err
		}
		for _, dto := range page.Items {
			if strings.HasPrefix(dto.ID.String(), raw) {
				matches = append(matches, dto)
			}
		}
		if page.Last || len(page.Items) == 0 {
			break
		}
	}

	switch len(matches) {
	case 0:
		return uuid.Nil, fmt.Errorf("no item matches %q", raw)
	case 1:
		return matches[0].ID, nil
	default:
		var b strings.Builder
		fmt.Fprintf(&b, "%d items match %q, be more specific:", len(matches), raw)
		for _, dto := range matches {
			fmt.Fprintf(&b, "\n  [%s] %s", dto.ID.String()[:8], dto.Description)
		}
		return uuid.Nil, errors.New(b.String())
	}
}
