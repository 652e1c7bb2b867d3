package outbox

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository keeps outbox messages in process memory. It backs the
// CLI and tests where no broker is configured.
type InMemoryRepository struct {
	mu       sync.Mutex
	messages map[int64]*Message
	nextID   int64
}

// NewInMemoryRepository creates an empty in-memory outbox.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		messages: make(map[int64]*Message),
		nextID:   1,
	}
}

// Save stores a new outbox message.
func (r *InMemoryRepository) Save(_ context.Context, msg *Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(msg)
	return nil
}

// SaveBatch stores multiple outbox messages.
func (r *InMemoryRepository) SaveBatch(_ context.Context, msgs []*Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, msg := range msgs {
		r.store(msg)
	}
	return nil
}

func (r *InMemoryRepository) store(msg *Message) {
	msg.ID = r.nextID
	r.nextID++
	stored := *msg
	r.messages[msg.ID] = &stored
}

// GetUnpublished returns pending messages due at now, oldest first.
func (r *InMemoryRepository) GetUnpublished(_ context.Context, now time.Time, limit int) ([]*Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pending []*Message
	for _, msg := range r.messages {
		if !msg.Deliverable(now) {
			continue
		}
		cp := *msg
		pending = append(pending, &cp)
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkPublished marks a message as published.
func (r *InMemoryRepository) MarkPublished(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := r.messages[id]; ok {
		msg.PublishedAt = &at
	}
	return nil
}

// MarkFailed records a publish failure.
func (r *InMemoryRepository) MarkFailed(_ context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := r.messages[id]; ok {
		msg.RetryCount++
		msg.LastError = &errMsg
		msg.NextRetryAt = &nextRetryAt
	}
	return nil
}

// MarkDead marks a message as dead-lettered.
func (r *InMemoryRepository) MarkDead(_ context.Context, id int64, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if msg, ok := r.messages[id]; ok {
		msg.RetryCount++
		msg.DeadLetterReason = &reason
		msg.DeadLetteredAt = &at
	}
	return nil
}

// DeleteOld removes published messages older than before.
func (r *InMemoryRepository) DeleteOld(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, msg := range r.messages {
		if msg.PublishedAt != nil && msg.PublishedAt.Before(before) {
			delete(r.messages, id)
			n++
		}
	}
	return n, nil
}

// Messages returns a snapshot of every stored message ordered by id.
func (r *InMemoryRepository) Messages() []*Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Message, 0, len(r.messages))
	for _, msg := range r.messages {
		cp := *msg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
