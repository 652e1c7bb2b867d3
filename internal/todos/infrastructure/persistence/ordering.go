package persistence

import (
	"strings"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/lib/pq"
)

const itemColumns = `id, description, status, creation_date, due_date, done_date, updated_at, version`

// sortColumns maps the sortable item properties to their columns. Only
// these names ever reach an ORDER BY clause.
var sortColumns = map[item.SortField]string{
	item.SortByID:           "id",
	item.SortByDescription:  "description",
	item.SortByStatus:       "status",
	item.SortByCreationDate: "creation_date",
	item.SortByDueDate:      "due_date",
	item.SortByDoneDate:     "done_date",
}

// orderByClause renders the page's ordering. Null done dates sort last
// ascending and first descending on both drivers.
func orderByClause(req item.PageRequest) string {
	orders := req.OrderBy()
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		column, ok := sortColumns[o.Field]
		if !ok {
			continue
		}
		clause := pq.QuoteIdentifier(column) + " " + string(o.Direction)
		if o.Field == item.SortByDoneDate {
			if o.Direction == item.Desc {
				clause += " NULLS FIRST"
			} else {
				clause += " NULLS LAST"
			}
		}
		parts = append(parts, clause)
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}
