package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type contextKey string

const (
	// TxKey is the context key for storing the active transaction.
	TxKey contextKey = "tx"
)

// Transactor runs a function inside a database transaction.
// Services depend on this interface so tests can substitute a passthrough.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// GetTx retrieves the active transaction from context.
// Returns nil and false if not present.
func GetTx(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(TxKey).(pgx.Tx)
	return tx, ok
}

// SetTx stores the transaction in context.
func SetTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// Conn returns the transaction stored in ctx, or fallback when there is none.
// Repositories call this so the same code runs inside and outside InTx.
func Conn(ctx context.Context, fallback Querier) Querier {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return fallback
}

// InTx begins a transaction, stores it in the context passed to fn and commits
// when fn returns nil. Any error or panic rolls the transaction back.
// Nested calls reuse the outer transaction.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(SetTx(ctx, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ensure DB implements Transactor at compile time.
var _ Transactor = (*DB)(nil)
