package application

import "context"

// UnitOfWork provides transactional support for aggregating multiple operations.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFunc is a function that executes within a unit of work.
type UnitOfWorkFunc func(ctx context.Context) error

// WithUnitOfWork runs fn inside a unit of work. An error or panic from fn
// rolls back; a rollback failure is dropped in favour of fn's error.
func WithUnitOfWork(ctx context.Context, uow UnitOfWork, fn UnitOfWorkFunc) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback(txCtx)
		}
	}()

	if err := fn(txCtx); err != nil {
		return err
	}
	committed = true
	return uow.Commit(txCtx)
}

// OutcomeFunc runs inside a unit of work. A non-nil err rolls back; a
// non-nil outcome is reported to the caller only after a successful commit.
type OutcomeFunc func(ctx context.Context) (outcome error, err error)

// WithUnitOfWorkOutcome commits whatever fn wrote and then returns the
// outcome. It serves operations that must persist a side effect even though
// they end up refusing the request.
func WithUnitOfWorkOutcome(ctx context.Context, uow UnitOfWork, fn OutcomeFunc) error {
	var outcome error
	err := WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		var fnErr error
		outcome, fnErr = fn(txCtx)
		return fnErr
	})
	if err != nil {
		return err
	}
	return outcome
}
