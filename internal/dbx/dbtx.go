// Package dbx provides the small database abstractions shared by
// repositories: the DBTX interface satisfied by both *sql.DB and *sql.Tx,
// and helpers that run a function inside a (retried) transaction.
package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Beginner opens transactions. *sql.DB satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// PostgreSQL SQLSTATE codes that mean "the transaction lost a race, run it again".
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// RetryBaseDelay is the first backoff step between transaction attempts.
var RetryBaseDelay = 10 * time.Millisecond

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db Beginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
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

// WithRetryTx runs fn in a transaction like WithTx and re-runs the whole
// transaction when PostgreSQL reports a serialization failure or a deadlock,
// at most maxRetries extra times with exponential backoff. When the budget is
// exhausted the error wraps common.ErrorConflict. Any other error is returned
// as is after the first attempt.
func WithRetryTx(ctx context.Context, db Beginner, opts *sql.TxOptions, maxRetries uint64, fn func(ctx context.Context, tx DBTX) error) error {
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(RetryBaseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := WithTx(ctx, db, opts, fn)
		if IsSerializationFailure(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	if IsSerializationFailure(err) {
		return fmt.Errorf("%w: %w", common.ErrorConflict, err)
	}
	return err
}

// IsSerializationFailure reports whether err carries a PostgreSQL
// serialization failure or deadlock SQLSTATE.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}
