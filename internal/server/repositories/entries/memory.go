package entries

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// MemoryStore holds entry rows in process memory. Every repository call and
// every transaction takes the same mutex, so transactions are serializable.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]*models.Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]*models.Entry)}
}

// Repository returns a handle whose calls each lock the store.
func (s *MemoryStore) Repository() *MemoryRepository {
	return &MemoryRepository{store: s}
}

// InTx runs fn with exclusive access to the store. When fn fails the rows
// are restored to their state before the call.
func (s *MemoryStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := make(map[string]*models.Entry, len(s.rows))
	for id, e := range s.rows {
		snapshot[id] = e.Clone()
	}

	if err := fn(ctx, &MemoryRepository{store: s, inTx: true}); err != nil {
		s.rows = snapshot
		return err
	}
	return nil
}

// MemoryRepository implements Repository on a MemoryStore.
type MemoryRepository struct {
	store *MemoryStore
	inTx  bool
}

func (r *MemoryRepository) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.store.mu.Lock()
	return r.store.mu.Unlock
}

func (r *MemoryRepository) Create(ctx context.Context, e *models.Entry) error {
	defer r.lock()()
	if _, ok := r.store.rows[e.ID]; ok {
		return fmt.Errorf("failed to insert entry: duplicate id %s", e.ID)
	}
	r.store.rows[e.ID] = e.Clone()
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	defer r.lock()()
	e, ok := r.store.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return e.Clone(), nil
}

func (r *MemoryRepository) GetForUpdate(ctx context.Context, id string) (*models.Entry, error) {
	return r.Get(ctx, id)
}

func (r *MemoryRepository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, error) {
	defer r.lock()()

	result := []*models.Entry{}
	for _, e := range r.store.rows {
		if e.OwnerID == ownerID && sameParent(e.ParentID, parentID) {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return result, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *MemoryRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	defer r.lock()()
	var n int64
	for _, e := range r.store.rows {
		if e.ParentID != nil && *e.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	defer r.lock()()
	var n int64
	for _, e := range r.store.rows {
		if e.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Ancestors(ctx context.Context, id string, limit int64) ([]*models.Entry, error) {
	defer r.lock()()

	chain := []*models.Entry{}
	next := &id
	for next != nil && int64(len(chain)) < limit {
		e, ok := r.store.rows[*next]
		if !ok {
			break
		}
		chain = append(chain, e.Clone())
		next = e.ParentID
	}
	return chain, nil
}

func (r *MemoryRepository) UpdatePlacement(ctx context.Context, e *models.Entry) error {
	defer r.lock()()
	row, ok := r.store.rows[e.ID]
	if !ok {
		return common.ErrorNotFound
	}
	updated := e.Clone()
	row.ParentID = updated.ParentID
	row.Name = updated.Name
	row.Path = updated.Path
	row.UpdatedAt = updated.UpdatedAt
	return nil
}

func (r *MemoryRepository) RewriteDescendantPaths(ctx context.Context, id, oldPrefix, newPrefix string) (int64, error) {
	defer r.lock()()

	var n int64
	for _, d := range r.descendants(id) {
		d.Path = newPrefix + strings.TrimPrefix(d.Path, oldPrefix)
		n++
	}
	return n, nil
}

// descendants returns the live rows below id, breadth first. Callers hold the lock.
func (r *MemoryRepository) descendants(id string) []*models.Entry {
	byParent := make(map[string][]*models.Entry)
	for _, e := range r.store.rows {
		if e.ParentID != nil {
			byParent[*e.ParentID] = append(byParent[*e.ParentID], e)
		}
	}

	var out []*models.Entry
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, child := range byParent[cur] {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			out = append(out, child)
			queue = append(queue, child.ID)
		}
	}
	return out
}

func (r *MemoryRepository) SetStarred(ctx context.Context, ownerID, id string, value bool, at time.Time) (*models.Entry, error) {
	return r.mutate(ownerID, id, false, func(e *models.Entry) {
		e.IsStarred = value
		e.UpdatedAt = at
	})
}

func (r *MemoryRepository) SetTrashed(ctx context.Context, ownerID, id string, value bool, at time.Time) (*models.Entry, error) {
	return r.mutate(ownerID, id, false, func(e *models.Entry) {
		e.IsTrashed = value
		e.UpdatedAt = at
	})
}

func (r *MemoryRepository) ReplaceContent(ctx context.Context, ownerID, id string, loc models.Location, size int64, kind string, at time.Time) (*models.Entry, error) {
	return r.mutate(ownerID, id, true, func(e *models.Entry) {
		e.Location = loc
		e.Size = size
		e.Kind = kind
		e.UpdatedAt = at
	})
}

func (r *MemoryRepository) mutate(ownerID, id string, filesOnly bool, fn func(e *models.Entry)) (*models.Entry, error) {
	defer r.lock()()
	e, ok := r.store.rows[id]
	if !ok || e.OwnerID != ownerID || (filesOnly && e.IsFolder) {
		return nil, common.ErrorNotFound
	}
	fn(e)
	return e.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.store.rows[id]; !ok {
		return common.ErrorNotFound
	}
	for _, e := range r.store.rows {
		if e.ParentID != nil && *e.ParentID == id {
			return fmt.Errorf("failed to delete entry: %s still referenced by %s", id, e.ID)
		}
	}
	delete(r.store.rows, id)
	return nil
}

func (r *MemoryRepository) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	defer r.lock()()
	if _, ok := r.store.rows[id]; !ok {
		return 0, common.ErrorNotFound
	}
	doomed := r.descendants(id)
	for _, d := range doomed {
		delete(r.store.rows, d.ID)
	}
	delete(r.store.rows, id)
	return int64(len(doomed)) + 1, nil
}
