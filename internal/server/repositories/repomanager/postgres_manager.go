// Package repomanager wires repository implementations to a storage backend:
// PostgreSQL (with goose migrations and retried serializable transactions)
// or process memory.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/migrations"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// DefaultTxMaxRetries bounds how many times a conflicting transaction is re-run.
const DefaultTxMaxRetries = 3

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	db         *sql.DB
	maxRetries uint64
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// NewPostgresRepositoryManager wraps an open database handle.
func NewPostgresRepositoryManager(db *sql.DB, maxRetries uint64) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db, maxRetries: maxRetries}
}

// OpenPostgres opens a pgx-backed *sql.DB for dsn, verifies connectivity and
// returns a manager bound to it.
func OpenPostgres(ctx context.Context, dsn string, maxRetries uint64) (*PostgresRepositoryManager, error) {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return NewPostgresRepositoryManager(db, maxRetries), nil
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

// Entries returns a repository bound to the connection pool.
func (m *PostgresRepositoryManager) Entries() entries.Repository {
	return entries.NewPostgresRepository(m.db)
}

// InTx runs fn in a serializable transaction with bounded retry.
func (m *PostgresRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r entries.Repository) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return dbx.WithRetryTx(ctx, m.db, opts, m.maxRetries, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, entries.NewPostgresRepository(tx))
	})
}

// Ping checks that the database still answers.
func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
