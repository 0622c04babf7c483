// Package dbx holds the database helpers shared by repositories: the DBTX
// handle accepted by every repo, a transaction runner and driver-neutral
// error classification.
package dbx

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is the part of database/sql the repositories use. *sql.DB and *sql.Tx
// both satisfy it, so a repo works the same inside and outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxFunc runs inside a transaction and produces a value of type T.
type TxFunc[T any] func(ctx context.Context, tx DBTX) (T, error)

// InTx runs fn in a transaction and returns its value. The transaction is
// committed when fn succeeds and rolled back when it fails or panics; a
// panic is re-raised after the rollback. A failed rollback is joined to the
// error from fn.
//
//	n, err := dbx.InTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) (int, error) {
//	    return repomanager.Sessions(tx).DeleteByUser(ctx, name)
//	})
func InTx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc[T]) (res T, err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return res, err
	}

	done := false
	defer func() {
		if done {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	res, err = fn(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
		done = true
		var zero T
		return zero, err
	}

	done = true
	if err = tx.Commit(); err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}

// NullString maps the empty string to SQL NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
