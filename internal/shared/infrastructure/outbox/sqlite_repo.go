package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database/sqlite"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using SQLite. Timestamps are stored
// with sqlite.FormatTimestamp so comparisons work on the TEXT columns.
type SQLiteRepository struct {
	conn database.Connection
}

// NewSQLiteRepository creates a new SQLite outbox repository.
func NewSQLiteRepository(conn database.Connection) *SQLiteRepository {
	return &SQLiteRepository{conn: conn}
}

// Save stores a new outbox message.
func (r *SQLiteRepository) Save(ctx context.Context, msg *Message) error {
	return r.insert(ctx, database.ExecutorFromContext(ctx, r.conn), msg)
}

// SaveBatch stores multiple outbox messages atomically.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return saveBatch(ctx, r.conn, msgs, r.insert)
}

func (r *SQLiteRepository) insert(ctx context.Context, exec database.Executor, msg *Message) error {
	query := `
		INSERT INTO outbox (
			event_id, aggregate_type, aggregate_id, event_type, routing_key,
			payload, metadata, created_at, next_retry_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	metadata := sql.NullString{String: string(msg.Metadata), Valid: len(msg.Metadata) > 0}
	return exec.QueryRow(ctx, query,
		msg.EventID.String(),
		msg.AggregateType,
		msg.AggregateID.String(),
		msg.EventType,
		msg.RoutingKey,
		string(msg.Payload),
		metadata,
		sqlite.FormatTimestamp(msg.CreatedAt),
		sqlite.FormatNullTimestamp(msg.NextRetryAt),
	).Scan(&msg.ID)
}

// GetUnpublished retrieves pending messages ordered by creation time.
func (r *SQLiteRepository) GetUnpublished(ctx context.Context, now time.Time, limit int) ([]*Message, error) {
	query := `SELECT ` + messageColumns + `
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at, id
		LIMIT ?
	`
	rows, err := r.conn.Query(ctx, query, sqlite.FormatTimestamp(now), limit)
	if err != nil {
		return nil, err
	}
	return database.CollectRows(rows, scanSQLiteMessage)
}

func scanSQLiteMessage(row database.Row) (*Message, error) {
	var (
		msg                                                         Message
		eventID, aggregateID, payload, createdAt                    string
		metadata, publishedAt, nextRetryAt, deadLetteredAt, lastErr sql.NullString
		reason                                                      sql.NullString
	)
	err := row.Scan(
		&msg.ID,
		&eventID,
		&msg.AggregateType,
		&aggregateID,
		&msg.EventType,
		&msg.RoutingKey,
		&payload,
		&metadata,
		&createdAt,
		&publishedAt,
		&nextRetryAt,
		&msg.RetryCount,
		&lastErr,
		&deadLetteredAt,
		&reason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan outbox message: %w", err)
	}

	if msg.EventID, err = uuid.Parse(eventID); err != nil {
		return nil, fmt.Errorf("invalid event id: %w", err)
	}
	if msg.AggregateID, err = uuid.Parse(aggregateID); err != nil {
		return nil, fmt.Errorf("invalid aggregate id: %w", err)
	}
	if msg.CreatedAt, err = sqlite.ParseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if msg.PublishedAt, err = sqlite.ParseNullTimestamp(publishedAt); err != nil {
		return nil, err
	}
	if msg.NextRetryAt, err = sqlite.ParseNullTimestamp(nextRetryAt); err != nil {
		return nil, err
	}
	if msg.DeadLetteredAt, err = sqlite.ParseNullTimestamp(deadLetteredAt); err != nil {
		return nil, err
	}

	msg.Payload = []byte(payload)
	if metadata.Valid {
		msg.Metadata = []byte(metadata.String)
	}
	if lastErr.Valid {
		msg.LastError = &lastErr.String
	}
	if reason.Valid {
		msg.DeadLetterReason = &reason.String
	}
	return &msg, nil
}

// MarkPublished marks a message as successfully published.
func (r *SQLiteRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	_, err := r.conn.Exec(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`, sqlite.FormatTimestamp(at), id)
	return err
}

// MarkFailed records a publish failure with error message.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			last_error = ?,
			next_retry_at = ?
		WHERE id = ?
	`
	_, err := r.conn.Exec(ctx, query, errMsg, sqlite.FormatTimestamp(nextRetryAt), id)
	return err
}

// MarkDead marks a message as dead-lettered.
func (r *SQLiteRepository) MarkDead(ctx context.Context, id int64, reason string, at time.Time) error {
	query := `
		UPDATE outbox
		SET retry_count = retry_count + 1,
			dead_lettered_at = ?,
			dead_letter_reason = ?
		WHERE id = ?
	`
	_, err := r.conn.Exec(ctx, query, sqlite.FormatTimestamp(at), reason, id)
	return err
}

// DeleteOld removes published messages older than before.
func (r *SQLiteRepository) DeleteOld(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.conn.Exec(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < ?`, sqlite.FormatTimestamp(before))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
