package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)

// newStoredItem creates an item at createdAt and saves it.
func newStoredItem(t *testing.T, repo item.Repository, description string, createdAt, dueDate time.Time) *item.Item {
	t.Helper()
	i, err := item.NewItem(description, dueDate, createdAt)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), i))
	return i
}

func pageOf(t *testing.T, page, size int, sort ...string) item.PageRequest {
	t.Helper()
	orders := make([]item.Order, 0, len(sort))
	for _, s := range sort {
		o, err := item.ParseOrder(s)
		require.NoError(t, err)
		orders = append(orders, o)
	}
	req, err := item.NewPageRequest(page, size, orders...)
	require.NoError(t, err)
	return req
}

func descriptions(p item.Page) []string {
	out := make([]string, 0, len(p.Items))
	for _, i := range p.Items {
		out = append(out, i.Description())
	}
	return out
}

// runRepositoryContract exercises behaviour both drivers must share. repo
// must start empty.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) item.Repository) {
	t.Run("save and find round trip", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		saved := newStoredItem(t, repo, "buy milk", now, now.Add(24*time.Hour))
		assert.Equal(t, 1, saved.Version())

		found, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, saved.ID(), found.ID())
		assert.Equal(t, "buy milk", found.Description())
		assert.Equal(t, item.StatusNotDone, found.Status())
		assert.True(t, now.Equal(found.CreationDate()))
		assert.True(t, now.Add(24*time.Hour).Equal(found.DueDate()))
		assert.Nil(t, found.DoneDate())
		assert.Equal(t, 1, found.Version())
		assert.Empty(t, found.DomainEvents())
	})

	t.Run("sub-microsecond instants round trip unchanged", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		createdAt := now.Add(123456789 * time.Nanosecond)
		saved := newStoredItem(t, repo, "  padded  ", createdAt, createdAt.Add(24*time.Hour))
		require.NoError(t, saved.MarkDone(createdAt.Add(time.Hour)))
		require.NoError(t, repo.Save(ctx, saved))

		found, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "  padded  ", found.Description())
		assert.Equal(t, saved.CreationDate(), found.CreationDate())
		assert.Equal(t, saved.DueDate(), found.DueDate())
		require.NotNil(t, found.DoneDate())
		assert.Equal(t, *saved.DoneDate(), *found.DoneDate())
	})

	t.Run("find missing returns nil", func(t *testing.T) {
		found, err := newRepo(t).FindByID(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("update bumps version and persists done date", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		saved := newStoredItem(t, repo, "buy milk", now, now.Add(24*time.Hour))

		loaded, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		require.NoError(t, loaded.MarkDone(now))
		require.NoError(t, repo.Save(ctx, loaded))
		assert.Equal(t, 2, loaded.Version())

		reloaded, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		assert.Equal(t, item.StatusDone, reloaded.Status())
		require.NotNil(t, reloaded.DoneDate())
		assert.True(t, now.Equal(*reloaded.DoneDate()))
		assert.Equal(t, 2, reloaded.Version())
	})

	t.Run("stale save is a concurrent modification", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		saved := newStoredItem(t, repo, "buy milk", now, now.Add(24*time.Hour))

		first, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)

		require.NoError(t, first.MarkDone(now))
		require.NoError(t, repo.Save(ctx, first))

		require.NoError(t, second.ChangeDescription("buy oat milk", now))
		assert.ErrorIs(t, repo.Save(ctx, second), item.ErrConcurrentModification)

		reloaded, err := repo.FindByID(ctx, saved.ID())
		require.NoError(t, err)
		assert.Equal(t, "buy milk", reloaded.Description())
		assert.Equal(t, item.StatusDone, reloaded.Status())
	})

	t.Run("list pages and sorts", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		newStoredItem(t, repo, "c", now, now.Add(3*time.Hour))
		newStoredItem(t, repo, "a", now, now.Add(1*time.Hour))
		newStoredItem(t, repo, "b", now, now.Add(2*time.Hour))

		p, err := repo.List(ctx, pageOf(t, 0, 2, "description,ASC"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, descriptions(p))
		assert.Equal(t, int64(3), p.Total)
		assert.Equal(t, 2, p.TotalPages())

		p, err = repo.List(ctx, pageOf(t, 1, 2, "description,ASC"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, descriptions(p))
		assert.True(t, p.IsLast())

		p, err = repo.List(ctx, pageOf(t, 0, 10, "dueDate,DESC"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "b", "a"}, descriptions(p))

		p, err = repo.List(ctx, pageOf(t, 5, 10))
		require.NoError(t, err)
		assert.Empty(t, p.Items)
		assert.Equal(t, int64(3), p.Total)
	})

	t.Run("list by status filters before paging", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		done := newStoredItem(t, repo, "a", now, now.Add(time.Hour))
		require.NoError(t, done.MarkDone(now))
		require.NoError(t, repo.Save(ctx, done))
		newStoredItem(t, repo, "b", now, now.Add(time.Hour))
		newStoredItem(t, repo, "c", now, now.Add(time.Hour))

		p, err := repo.ListByStatus(ctx, item.StatusNotDone, pageOf(t, 0, 1, "description,ASC"))
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, descriptions(p))
		assert.Equal(t, int64(2), p.Total)
	})

	t.Run("done date sorts nulls last ascending", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		newStoredItem(t, repo, "open", now, now.Add(time.Hour))
		done := newStoredItem(t, repo, "done", now, now.Add(time.Hour))
		require.NoError(t, done.MarkDone(now))
		require.NoError(t, repo.Save(ctx, done))

		p, err := repo.List(ctx, pageOf(t, 0, 10, "doneDate,ASC"))
		require.NoError(t, err)
		assert.Equal(t, []string{"done", "open"}, descriptions(p))

		p, err = repo.List(ctx, pageOf(t, 0, 10, "doneDate,DESC"))
		require.NoError(t, err)
		assert.Equal(t, []string{"open", "done"}, descriptions(p))
	})

	t.Run("mark past due only touches overdue not-done items", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		earlier := now.Add(-48 * time.Hour)

		overdue := newStoredItem(t, repo, "a", earlier, now.Add(-time.Hour))
		pending := newStoredItem(t, repo, "b", earlier, now.Add(time.Hour))
		finished := newStoredItem(t, repo, "c", earlier, now.Add(-time.Hour))
		require.NoError(t, finished.MarkDone(earlier))
		require.NoError(t, repo.Save(ctx, finished))

		count, err := repo.MarkPastDue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		a, _ := repo.FindByID(ctx, overdue.ID())
		b, _ := repo.FindByID(ctx, pending.ID())
		c, _ := repo.FindByID(ctx, finished.ID())
		assert.Equal(t, item.StatusPastDue, a.Status())
		assert.Equal(t, 2, a.Version())
		assert.Equal(t, item.StatusNotDone, b.Status())
		assert.Equal(t, item.StatusDone, c.Status())

		count, err = repo.MarkPastDue(ctx, now)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("due date equal to cutoff is past due", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		edge := newStoredItem(t, repo, "edge", now.Add(-time.Hour), now)

		count, err := repo.MarkPastDue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		got, _ := repo.FindByID(ctx, edge.ID())
		assert.Equal(t, item.StatusPastDue, got.Status())
	})

	t.Run("sweep makes an earlier load stale", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t)
		i := newStoredItem(t, repo, "a", now.Add(-time.Hour), now.Add(-time.Minute))

		loaded, err := repo.FindByID(ctx, i.ID())
		require.NoError(t, err)
		_, err = repo.MarkPastDue(ctx, now)
		require.NoError(t, err)

		require.NoError(t, loaded.MarkDone(now))
		assert.ErrorIs(t, repo.Save(ctx, loaded), item.ErrConcurrentModification)
	})
}
