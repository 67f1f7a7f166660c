package entries

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

// Repository persists Entry rows. Implementations perform no hierarchy
// validation; HierarchyService owns the invariants. Lookups of absent rows
// return common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, e *models.Entry) error
	Get(ctx context.Context, id string) (*models.Entry, error)
	// GetForUpdate is Get that also locks the row until the transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Entry, error)

	// ListChildren returns ownerID's entries directly under parentID (roots
	// when nil), ordered by name (byte order), created_at, id.
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, error)
	CountChildren(ctx context.Context, id string) (int64, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)

	// Ancestors returns the entry followed by its parent, grandparent and so
	// on, stopping at a root, at a missing parent, or after limit rows.
	// An unknown id yields an empty slice.
	Ancestors(ctx context.Context, id string, limit int64) ([]*models.Entry, error)

	// UpdatePlacement writes e's parent, name, path and updated_at.
	UpdatePlacement(ctx context.Context, e *models.Entry) error
	// RewriteDescendantPaths replaces the oldPrefix of every descendant's path
	// with newPrefix and returns the number of rows touched.
	RewriteDescendantPaths(ctx context.Context, id, oldPrefix, newPrefix string) (int64, error)

	SetStarred(ctx context.Context, ownerID, id string, value bool, at time.Time) (*models.Entry, error)
	SetTrashed(ctx context.Context, ownerID, id string, value bool, at time.Time) (*models.Entry, error)
	// ReplaceContent updates location, size and kind of a file; folders are
	// not matched and yield common.ErrorNotFound.
	ReplaceContent(ctx context.Context, ownerID, id string, loc models.Location, size int64, kind string, at time.Time) (*models.Entry, error)

	Delete(ctx context.Context, id string) error
	// DeleteSubtree removes id and all of its descendants in one statement and
	// returns the number of rows removed.
	DeleteSubtree(ctx context.Context, id string) (int64, error)
}
