package db

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTx stores a transaction in the context for repository methods to reuse.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns a transaction from context when available.
func TxFromContext(ctx context.Context) *sql.Tx {
	if ctx == nil {
		return nil
	}
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

type TxProvider interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

// queryer is what both *sql.DB and *sql.Tx offer.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the context transaction, or db outside one.
func conn(ctx context.Context, db *sql.DB) queryer {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

// begin opens a write transaction unless ctx already carries one. finish
// commits or rolls back only what begin opened.
func begin(ctx context.Context, db *sql.DB) (tx *sql.Tx, finish func(errp *error), err error) {
	if tx := TxFromContext(ctx); tx != nil {
		return tx, func(*error) {}, nil
	}
	tx, err = db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	return tx, func(errp *error) {
		if *errp != nil {
			_ = tx.Rollback()
			return
		}
		*errp = tx.Commit()
	}, nil
}
