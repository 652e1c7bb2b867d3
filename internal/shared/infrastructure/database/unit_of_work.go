package database

import (
	"context"
	"errors"
)

var (
	// ErrNoTransaction is returned by Commit and Rollback on a context that
	// Begin did not produce.
	ErrNoTransaction = errors.New("no transaction in context")

	// ErrRollbackOnly is returned by the outermost Commit after a nested
	// unit of work rolled back. The transaction has been rolled back.
	ErrRollbackOnly = errors.New("transaction was marked rollback-only by a nested unit of work")
)

// txState is shared by every scope joined to one transaction.
type txState struct {
	tx           Transaction
	rollbackOnly bool
}

type txScope struct {
	state *txState
	owner bool
}

type txKey struct{}

func scopeFrom(ctx context.Context) (txScope, bool) {
	scope, ok := ctx.Value(txKey{}).(txScope)
	if !ok || scope.state == nil {
		return txScope{}, false
	}
	return scope, true
}

// TxFromContext returns the transaction begun by a UnitOfWork, or nil.
func TxFromContext(ctx context.Context) Transaction {
	if scope, ok := scopeFrom(ctx); ok {
		return scope.state.tx
	}
	return nil
}

// ExecutorFromContext returns the transaction in ctx, or conn when there is
// none.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}

// UnitOfWork implements application.UnitOfWork over a Connection.
//
// A unit begun inside another joins the outer transaction. Only the
// outermost unit commits; a nested Rollback marks the transaction so the
// outermost Commit rolls it back instead.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a UnitOfWork on conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

// Begin starts a transaction, or joins the one already in ctx.
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if outer, ok := scopeFrom(ctx); ok {
		return context.WithValue(ctx, txKey{}, txScope{state: outer.state}), nil
	}

	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, txKey{}, txScope{state: &txState{tx: tx}, owner: true}), nil
}

// Commit commits when ctx holds the outermost unit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner {
		return nil
	}
	if scope.state.rollbackOnly {
		if err := scope.state.tx.Rollback(ctx); err != nil {
			return errors.Join(ErrRollbackOnly, err)
		}
		return ErrRollbackOnly
	}
	return scope.state.tx.Commit(ctx)
}

// Rollback rolls back the outermost unit and marks the transaction
// rollback-only from a nested one.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !scope.owner {
		scope.state.rollbackOnly = true
		return nil
	}
	return scope.state.tx.Rollback(ctx)
}
