package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
)

// SQLiteItemRepository implements item.Repository using SQLite.
type SQLiteItemRepository struct {
	conn database.Connection
}

// NewSQLiteItemRepository creates a new SQLite item repository.
func NewSQLiteItemRepository(conn database.Connection) *SQLiteItemRepository {
	return &SQLiteItemRepository{conn: conn}
}

// Save inserts a new item or updates an existing one at its loaded version.
func (r *SQLiteItemRepository) Save(ctx context.Context, i *item.Item) error {
	query := `
		INSERT INTO todo_items (
			id, description, status, creation_date, due_date, done_date, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			description = excluded.description,
			status = excluded.status,
			due_date = excluded.due_date,
			done_date = excluded.done_date,
			updated_at = excluded.updated_at,
			version = todo_items.version + 1
		WHERE todo_items.version = ?
		RETURNING version
	`

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		i.ID().String(),
		i.Description(),
		i.Status().String(),
		sqlite.FormatTimestamp(i.CreationDate()),
		sqlite.FormatTimestamp(i.DueDate()),
		sqlite.FormatNullTimestamp(i.DoneDate()),
		sqlite.FormatTimestamp(i.UpdatedAt()),
		i.Version()+1,
		i.Version(),
	).Scan(&newVersion)
	if err != nil {
		if database.IsNoRows(err) {
			return item.ErrConcurrentModification
		}
		return err
	}

	i.SetVersion(newVersion)
	return nil
}

// FindByID retrieves an item by its ID.
func (r *SQLiteItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM todo_items WHERE id = ?`

	exec := database.ExecutorFromContext(ctx, r.conn)
	i, err := scanSQLiteItem(exec.QueryRow(ctx, query, id.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return i, nil
}

// List returns a page of all items.
func (r *SQLiteItemRepository) List(ctx context.Context, req item.PageRequest) (item.Page, error) {
	return r.page(ctx, "", nil, req)
}

// ListByStatus returns a page of the items in the given status.
func (r *SQLiteItemRepository) ListByStatus(ctx context.Context, status item.Status, req item.PageRequest) (item.Page, error) {
	return r.page(ctx, "WHERE status = ?", []any{status.String()}, req)
}

func (r *SQLiteItemRepository) page(ctx context.Context, where string, args []any, req item.PageRequest) (item.Page, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var total int64
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM todo_items `+where, args...).Scan(&total); err != nil {
		return item.Page{}, fmt.Errorf("failed to count items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM todo_items ` + where + ` ` + orderByClause(req) + ` LIMIT ? OFFSET ?`
	rows, err := exec.Query(ctx, query, append(args, req.Size, req.Offset())...)
	if err != nil {
		return item.Page{}, err
	}
	items, err := database.CollectRows(rows, scanSQLiteItem)
	if err != nil {
		return item.Page{}, err
	}

	return item.Page{Items: items, Request: req, Total: total}, nil
}

// MarkPastDue flips every overdue NOT_DONE item in one statement.
func (r *SQLiteItemRepository) MarkPastDue(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE todo_items
		SET status = 'PAST_DUE', version = version + 1, updated_at = ?
		WHERE status = 'NOT_DONE' AND due_date <= ?
	`
	ts := sqlite.FormatTimestamp(cutoff)
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query, ts, ts)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSQLiteItem(row database.Row) (*item.Item, error) {
	var (
		id, description, status        string
		creationDate, dueDate, updated string
		doneDate                       sql.NullString
		version                        int
	)
	if err := row.Scan(&id, &description, &status, &creationDate, &dueDate, &doneDate, &updated, &version); err != nil {
		return nil, err
	}

	out := itemRow{Description: description, Status: status, Version: version}
	var err error
	if out.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid item id in database: %w", err)
	}
	if out.CreationDate, err = sqlite.ParseTimestamp(creationDate); err != nil {
		return nil, err
	}
	if out.DueDate, err = sqlite.ParseTimestamp(dueDate); err != nil {
		return nil, err
	}
	if out.DoneDate, err = sqlite.ParseNullTimestamp(doneDate); err != nil {
		return nil, err
	}
	if out.UpdatedAt, err = sqlite.ParseTimestamp(updated); err != nil {
		return nil, err
	}
	return out.toItem()
}
