package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
)

// RepositoryManager vends entry repositories and runs hierarchy transactions.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Entries returns a non-transactional repository; each call is its own statement.
	Entries() entries.Repository
	// InTx runs fn inside one serializable transaction, retrying it on
	// serialization conflicts. A conflict that outlives the retry budget is
	// reported as common.ErrorConflict.
	InTx(ctx context.Context, fn func(ctx context.Context, r entries.Repository) error) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
