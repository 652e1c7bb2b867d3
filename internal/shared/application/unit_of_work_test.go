package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type txMarker struct{}

// newTxUoW returns a mock whose Begin hands out a marked context.
func newTxUoW() (*mockUnitOfWork, context.Context, context.Context) {
	ctx := context.Background()
	txCtx := context.WithValue(ctx, txMarker{}, true)
	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(txCtx, nil)
	return uow, ctx, txCtx
}

func TestWithUnitOfWork(t *testing.T) {
	fnErr := errors.New("function error")
	commitErr := errors.New("commit error")

	tests := []struct {
		name         string
		fnErr        error
		commitErr    error
		rollbackErr  error
		wantErr      error
		wantCommit   bool
		wantRollback bool
	}{
		{name: "commits on success", wantCommit: true},
		{name: "rolls back on error", fnErr: fnErr, wantErr: fnErr, wantRollback: true},
		{name: "returns commit failure", commitErr: commitErr, wantErr: commitErr, wantCommit: true},
		{
			name:         "rollback failure does not mask the cause",
			fnErr:        fnErr,
			rollbackErr:  errors.New("rollback error"),
			wantErr:      fnErr,
			wantRollback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow, ctx, txCtx := newTxUoW()
			if tt.wantCommit {
				uow.On("Commit", txCtx).Return(tt.commitErr)
			}
			if tt.wantRollback {
				uow.On("Rollback", txCtx).Return(tt.rollbackErr)
			}

			var got context.Context
			err := WithUnitOfWork(ctx, uow, func(ctx context.Context) error {
				got = ctx
				return tt.fnErr
			})

			assert.ErrorIs(t, err, tt.wantErr)
			if tt.wantErr == nil {
				require.NoError(t, err)
			}
			assert.Same(t, txCtx, got)
			uow.AssertExpectations(t)
			if !tt.wantCommit {
				uow.AssertNotCalled(t, "Commit", mock.Anything)
			}
			if !tt.wantRollback {
				uow.AssertNotCalled(t, "Rollback", mock.Anything)
			}
		})
	}
}

func TestWithUnitOfWork_BeginFails(t *testing.T) {
	ctx := context.Background()
	beginErr := errors.New("begin error")
	uow := new(mockUnitOfWork)
	uow.On("Begin", ctx).Return(ctx, beginErr)

	called := false
	err := WithUnitOfWork(ctx, uow, func(context.Context) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, beginErr)
	assert.False(t, called)
	uow.AssertNotCalled(t, "Rollback", mock.Anything)
}

func TestWithUnitOfWork_PanicRollsBack(t *testing.T) {
	uow, ctx, txCtx := newTxUoW()
	uow.On("Rollback", txCtx).Return(nil)

	assert.PanicsWithValue(t, "boom", func() {
		_ = WithUnitOfWork(ctx, uow, func(context.Context) error {
			panic("boom")
		})
	})
	uow.AssertExpectations(t)
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestWithUnitOfWorkOutcome(t *testing.T) {
	refused := errors.New("refused")

	t.Run("commits and then reports the outcome", func(t *testing.T) {
		uow, ctx, txCtx := newTxUoW()
		uow.On("Commit", txCtx).Return(nil)

		err := WithUnitOfWorkOutcome(ctx, uow, func(context.Context) (error, error) {
			return refused, nil
		})

		assert.ErrorIs(t, err, refused)
		uow.AssertNotCalled(t, "Rollback", mock.Anything)
	})

	t.Run("nil outcome is success", func(t *testing.T) {
		uow, ctx, txCtx := newTxUoW()
		uow.On("Commit", txCtx).Return(nil)

		require.NoError(t, WithUnitOfWorkOutcome(ctx, uow, func(context.Context) (error, error) {
			return nil, nil
		}))
	})

	t.Run("error rolls back and hides the outcome", func(t *testing.T) {
		uow, ctx, txCtx := newTxUoW()
		uow.On("Rollback", txCtx).Return(nil)
		dbErr := errors.New("write failed")

		err := WithUnitOfWorkOutcome(ctx, uow, func(context.Context) (error, error) {
			return refused, dbErr
		})

		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, refused)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("commit failure wins over the outcome", func(t *testing.T) {
		uow, ctx, txCtx := newTxUoW()
		commitErr := errors.New("commit failed")
		uow.On("Commit", txCtx).Return(commitErr)

		err := WithUnitOfWorkOutcome(ctx, uow, func(context.Context) (error, error) {
			return refused, nil
		})

		assert.ErrorIs(t, err, commitErr)
	})
}
