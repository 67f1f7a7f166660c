package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestManagers_SatisfyInterface(t *testing.T) {
	db, _ := newDB(t)

	var _ RepositoryManager = NewPostgresRepositoryManager(db, DefaultTxMaxRetries)
	var _ RepositoryManager = NewInMemoryRepositoryManager()

	m := NewPostgresRepositoryManager(db, DefaultTxMaxRetries)
	var _ entries.Repository = m.Entries()
	require.NotNil(t, m.Entries())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db, 1)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db, 1)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestOpenPostgres_PingFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	orig := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driverName)
		assert.Equal(t, "postgres://x", dsn)
		return db, nil
	}
	defer func() { sqlOpen = orig }()

	_, err = OpenPostgres(context.Background(), "postgres://x", 1)
	require.Error(t, err)
	assert.Regexp(t, `ping database: refused`, err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	m := NewPostgresRepositoryManager(db, 1)

	mock.ExpectPing()
	require.NoError(t, m.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("gone"))
	err = m.Ping(context.Background())
	require.Error(t, err)
	assert.Regexp(t, `ping database: gone`, err.Error())
	require.NoError(t, mock.ExpectationsWereMet())

	mem := NewInMemoryRepositoryManager()
	require.NoError(t, mem.Ping(context.Background()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, mem.Ping(ctx), context.Canceled)
}

func TestOpenPostgres_OpenFailure(t *testing.T) {
	orig := sqlOpen
	sqlOpen = func(driverName, dsn string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	defer func() { sqlOpen = orig }()

	_, err := OpenPostgres(context.Background(), "::", 1)
	require.Error(t, err)
	assert.Regexp(t, `open database: bad dsn`, err.Error())
}

func TestPostgresInTx_SerializableAndRetried(t *testing.T) {
	orig := dbx.RetryBaseDelay
	dbx.RetryBaseDelay = time.Millisecond
	defer func() { dbx.RetryBaseDelay = orig }()

	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM entries`).WillReturnError(&pgconn.PgError{Code: "40001"})
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM entries`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewPostgresRepositoryManager(db, 2)
	err := m.InTx(context.Background(), func(ctx context.Context, r entries.Repository) error {
		return r.Delete(ctx, "a")
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInTx_ConflictAfterBudget(t *testing.T) {
	orig := dbx.RetryBaseDelay
	dbx.RetryBaseDelay = time.Millisecond
	defer func() { dbx.RetryBaseDelay = orig }()

	db, mock := newDB(t)
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	m := NewPostgresRepositoryManager(db, 1)
	err := m.InTx(context.Background(), func(ctx context.Context, r entries.Repository) error {
		return &pgconn.PgError{Code: "40001"}
	})
	assert.ErrorIs(t, err, common.ErrorConflict)
}

func TestInMemoryInTx_RollsBackOnError(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	require.NoError(t, m.Entries().Create(ctx, &models.Entry{ID: "a", Name: "A", Path: "/A", OwnerID: "u1", IsFolder: true}))

	err := m.InTx(ctx, func(ctx context.Context, r entries.Repository) error {
		if _, err := r.DeleteSubtree(ctx, "a"); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	got, err := m.Entries().Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got.Name)
}

func TestInMemoryInTx_CanceledContext(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.InTx(ctx, func(ctx context.Context, r entries.Repository) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Close())
}
