// Package dbx holds the unit-of-work primitives shared by repositories and
// services: a DBTX interface satisfied by *sql.DB and *sql.Tx, and helpers that
// run a function inside a transaction.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database/sql used by the repositories.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc is the body of a unit of work.
type TxFunc func(ctx context.Context, tx DBTX) error

// Transactor runs a TxFunc as one atomic unit of work.
type Transactor interface {
	WithTx(ctx context.Context, fn TxFunc) error
}

// WithTx begins a transaction, runs fn with it, and commits on success.
// Errors and panics roll back; panics are rethrown.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// SQLTransactor is a Transactor over a *sql.DB pool.
type SQLTransactor struct {
	DB   *sql.DB
	Opts *sql.TxOptions
}

// NewSQLTransactor wraps db.
func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{DB: db}
}

// WithTx implements Transactor.
func (t *SQLTransactor) WithTx(ctx context.Context, fn TxFunc) error {
	return WithTx(ctx, t.DB, t.Opts, fn)
}

// NoTx runs fn directly with a nil handle. It pairs with stores that ignore the
// handle, such as the in-memory repositories.
type NoTx struct{}

// WithTx implements Transactor.
func (NoTx) WithTx(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, nil)
}
