package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
)

// PostgresItemRepository implements item.Repository using PostgreSQL.
type PostgresItemRepository struct {
	conn database.Connection
}

// NewPostgresItemRepository creates a new PostgreSQL item repository.
func NewPostgresItemRepository(conn database.Connection) *PostgresItemRepository {
	return &PostgresItemRepository{conn: conn}
}

// itemRow represents a database row for items.
type itemRow struct {
	ID           uuid.UUID
	Description  string
	Status       string
	CreationDate time.Time
	DueDate      time.Time
	DoneDate     *time.Time
	UpdatedAt    time.Time
	Version      int
}

// Save inserts a new item or updates an existing one at its loaded version.
func (r *PostgresItemRepository) Save(ctx context.Context, i *item.Item) error {
	query := `
		INSERT INTO todo_items (
			id, description, status, creation_date, due_date, done_date, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $9)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			done_date = EXCLUDED.done_date,
			updated_at = EXCLUDED.updated_at,
			version = todo_items.version + 1
		WHERE todo_items.version = $8
		RETURNING version
	`

	var newVersion int
	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query,
		i.ID(),
		i.Description(),
		i.Status().String(),
		i.CreationDate(),
		i.DueDate(),
		i.DoneDate(),
		i.UpdatedAt(),
		i.Version(),
		i.Version()+1,
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
func (r *PostgresItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*item.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM todo_items WHERE id = $1`

	exec := database.ExecutorFromContext(ctx, r.conn)
	row, err := scanPostgresItem(exec.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return row.toItem()
}

// List returns a page of all items.
func (r *PostgresItemRepository) List(ctx context.Context, req item.PageRequest) (item.Page, error) {
	return r.page(ctx, "", nil, req)
}

// ListByStatus returns a page of the items in the given status.
func (r *PostgresItemRepository) ListByStatus(ctx context.Context, status item.Status, req item.PageRequest) (item.Page, error) {
	return r.page(ctx, "WHERE status = $1", []any{status.String()}, req)
}

func (r *PostgresItemRepository) page(ctx context.Context, where string, args []any, req item.PageRequest) (item.Page, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var total int64
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM todo_items `+where, args...).Scan(&total); err != nil {
		return item.Page{}, fmt.Errorf("failed to count items: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM todo_items %s %s LIMIT $%d OFFSET $%d`,
		itemColumns, where, orderByClause(req), len(args)+1, len(args)+2)
	rows, err := exec.Query(ctx, query, append(args, req.Size, req.Offset())...)
	if err != nil {
		return item.Page{}, err
	}
	items, err := database.CollectRows(rows, func(r database.Row) (*item.Item, error) {
		row, err := scanPostgresItem(r)
		if err != nil {
			return nil, err
		}
		return row.toItem()
	})
	if err != nil {
		return item.Page{}, err
	}

	return item.Page{Items: items, Request: req, Total: total}, nil
}

// MarkPastDue flips every overdue NOT_DONE item in one statement.
func (r *PostgresItemRepository) MarkPastDue(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE todo_items
		SET status = 'PAST_DUE', version = version + 1, updated_at = $1
		WHERE status = 'NOT_DONE' AND due_date <= $1
	`
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanPostgresItem(row database.Row) (itemRow, error) {
	var r itemRow
	err := row.Scan(
		&r.ID,
		&r.Description,
		&r.Status,
		&r.CreationDate,
		&r.DueDate,
		&r.DoneDate,
		&r.UpdatedAt,
		&r.Version,
	)
	return r, err
}

func (row itemRow) toItem() (*item.Item, error) {
	status, err := item.ParseStatus(row.Status)
	if err != nil {
		return nil, fmt.Errorf("invalid status in database: %w", err)
	}
	return item.RehydrateItem(
		row.ID,
		row.Description,
		status,
		row.CreationDate,
		row.DueDate,
		row.DoneDate,
		row.UpdatedAt,
		row.Version,
	), nil
}
