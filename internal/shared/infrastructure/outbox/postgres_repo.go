package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
)

const messageColumns = `id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
       payload, metadata, created_at, published_at, next_retry_at, retry_count,
       last_error, dead_lettered_at, dead_letter_reason`

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

// Save stores a new outbox message.
func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, database.ExecutorFromContext(ctx, r.conn), msg)
}

// SaveBatch stores multiple outbox messages atomically.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return saveBatch(ctx, r.conn, msgs, r.insert)
}

func (r *PostgresRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	query := `
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, event_type, routing_key,
			payload, metadata, created_at, next_retry_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	return exec.QueryRow(ctx, query,
		msg.EventID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.RoutingKey,
		[]byte(msg.Payload),
		nullableJSON(msg.Metadata),
		msg.CreatedAt,
		msg.NextRetryAt,
	).Scan(&msg.ID)
}

// GetUnpublished retrieves pending messages ordered by creation time.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= $1)
		ORDER BY created_at, id
		LIMIT $2
	`
	rows, err := r.conn.Query(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanPostgresMessage)
}

func scanPostgresMessage(row database.Row) (*Message, error) {
	var msg Message
	var payload, metadata []byte
	err := row.Scan(
		&msg.ID,
		&msg.EventID,
		&msg.AggregateType,
		&msg.AggregateID,
		&msg.EventType,
		&msg.RoutingKey,
		&payload,
		&metadata,
		&msg.CreatedAt,
		&msg.PublishedAt,
		&msg.NextRetryAt,
		&msg.RetryCount,
		&msg.LastError,
		&msg.DeadLetteredAt,
		&msg.DeadLetterReason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox message: %w", err)
	}
	msg.Payload = payload
	msg.Metadata = metadata
	msg.CreatedAt = msg.CreatedAt.UTC()
	return &msg, nil
}

// MarkPublished marks a message as successfully published.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE outbox SET published_at = $2 WHERE id = $1`, id, at)
	return err
}

// MarkFailed records a publish failure with error message.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = $2,
			next_retry_at = $3
		WHERE id = $1
	`
	_, err := r.conn.Exec(ctx, query, id, errMsg, nextRetryAt)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			dead_lettered_at = $3,
			dead_letter_reason = $2
		WHERE id = $1
	`
	_, err := r.conn.Exec(ctx, query, id, reason, at)
	return err
}

// DeleteOld removes published messages older than before.
func (r *PostgresRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn.Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// saveBatch inserts msgs inside the context's transaction, or inside a new
// one when the caller has none.
func saveBatch(
	ctx context.Context,
	conn database.Connection,
	msgs []*Message,
	insert func(context.Context, database.Executor, *Message) error,
) error {
	if tx := database.TxFromContext(ctx); tx != nil {
		for _, msg := range msgs {
			if err := insert(ctx, tx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, msg := range msgs {
		if err := insert(ctx, tx, msg); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
