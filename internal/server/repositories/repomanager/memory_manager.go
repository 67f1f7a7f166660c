package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
)

// InMemoryRepositoryManager keeps entries in process memory. It is used
// when no database is configured and in tests.
type InMemoryRepositoryManager struct {
	store *entries.MemoryStore
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{store: entries.NewMemoryStore()}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Entries() entries.Repository {
	return m.store.Repository()
}

func (m *InMemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r entries.Repository) error) error {
	return m.store.InTx(ctx, fn)
}

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *InMemoryRepositoryManager) Close() error {
	return nil
}
