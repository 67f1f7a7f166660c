// Package services implements the server's business operations: the file
// and folder hierarchy and upload authorization.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/logging"
	"github.com/dmitrijs2005/gophdrive/internal/server/cache"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// HierarchyService owns the file/folder tree of every owner. All structural
// invariants (parent is an existing folder of the same owner, no cycles,
// guarded deletes) are enforced here; repositories only persist rows.
type HierarchyService struct {
	repomanager repomanager.RepositoryManager
	cache       cache.ListingCache
	logger      logging.Logger

	now   func() time.Time
	newID func() string
}

// NewHierarchyService builds the service. A nil cache disables listing caching.
func NewHierarchyService(rm repomanager.RepositoryManager, c cache.ListingCache, l logging.Logger) *HierarchyService {
	if c == nil {
		c = cache.NopListingCache{}
	}
	return &HierarchyService{
		repomanager: rm,
		cache:       c,
		logger:      l.With("module", "hierarchy"),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:       uuid.NewString,
	}
}

// CreateFolder creates an empty folder under parentID (a root item when nil).
func (s *HierarchyService) CreateFolder(ctx context.Context, ownerID, name string, parentID *string) (*models.Entry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	return s.create(ctx, ownerID, parentID, &models.Entry{Name: name, IsFolder: true})
}

// CreateFile registers a file whose bytes already live in the blob store.
func (s *HierarchyService) CreateFile(ctx context.Context, ownerID, name string, parentID *string, loc models.Location, size int64, kind string) (*models.Entry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateContent(loc, size); err != nil {
		return nil, err
	}
	return s.create(ctx, ownerID, parentID, &models.Entry{Name: name, Location: loc, Size: size, Kind: kind})
}

func (s *HierarchyService) create(ctx context.Context, ownerID string, parentID *string, e *models.Entry) (*models.Entry, error) {
	if ownerID == "" {
		return nil, common.ErrorUnauthorized
	}

	err := s.repomanager.InTx(ctx, func(ctx context.Context, r entries.Repository) error {
		parent, err := s.resolveParent(ctx, r, ownerID, parentID)
		if err != nil {
			return err
		}

		now := s.now()
		e.ID = s.newID()
		e.OwnerID = ownerID
		e.ParentID = cloneID(parentID)
		e.Path = childPath(parent, e.Name)
		e.IsStarred, e.IsTrashed = false, false
		e.CreatedAt, e.UpdatedAt = now, now

		return r.Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	s.logger.Info(ctx, "entry created", "entry_id", e.ID, "owner_id", ownerID, "is_folder", e.IsFolder)
	return e, nil
}

// Move re-parents entryID under newParentID (root when nil). The ancestor
// walk that rules out cycles and the parent update run in one serializable
// transaction.
func (s *HierarchyService) Move(ctx context.Context, ownerID, entryID string, newParentID *string) (*models.Entry, error) {
	if !validID(entryID) {
		return nil, common.ErrorNotFound
	}

	var moved *models.Entry
	err := s.repomanager.InTx(ctx, func(ctx context.Context, r entries.Repository) error {
		e, err := ownedForUpdate(ctx, r, ownerID, entryID)
		if err != nil {
			return err
		}

		var parent *models.Entry
		if newParentID != nil {
			if *newParentID == e.ID {
				return fmt.Errorf("%w: %s cannot contain itself", common.ErrorCycleDetected, e.ID)
			}
			if parent, err = s.resolveParent(ctx, r, ownerID, newParentID); err != nil {
				return err
			}
			chain, err := s.ancestorChain(ctx, r, ownerID, parent.ID)
			if err != nil {
				return err
			}
			for _, a := range chain {
				if a.ID == e.ID {
					return fmt.Errorf("%w: %s is a descendant of %s", common.ErrorCycleDetected, parent.ID, e.ID)
				}
			}
		}

		oldPath := e.Path
		e.ParentID = cloneID(newParentID)
		e.Path = childPath(parent, e.Name)
		e.UpdatedAt = s.now()

		if err := s.place(ctx, r, e, oldPath); err != nil {
			return err
		}
		moved = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	s.logger.Info(ctx, "entry moved", "entry_id", entryID, "owner_id", ownerID, "parent_id", idOrRoot(newParentID))
	return moved, nil
}

// Rename changes an entry's name without touching its position.
func (s *HierarchyService) Rename(ctx context.Context, ownerID, entryID, newName string) (*models.Entry, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}
	if !validID(entryID) {
		return nil, common.ErrorNotFound
	}

	var renamed *models.Entry
	err := s.repomanager.InTx(ctx, func(ctx context.Context, r entries.Repository) error {
		e, err := ownedForUpdate(ctx, r, ownerID, entryID)
		if err != nil {
			return err
		}

		var parent *models.Entry
		if e.ParentID != nil {
			parent, err = r.Get(ctx, *e.ParentID)
			if errors.Is(err, common.ErrorNotFound) {
				return s.brokenChain(ctx, ownerID, e.ID, 1)
			}
			if err != nil {
				return err
			}
		}

		oldPath := e.Path
		e.Name = newName
		e.Path = childPath(parent, newName)
		e.UpdatedAt = s.now()

		if err := s.place(ctx, r, e, oldPath); err != nil {
			return err
		}
		renamed = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return renamed, nil
}

// place persists e's new position and keeps descendant paths in step.
func (s *HierarchyService) place(ctx context.Context, r entries.Repository, e *models.Entry, oldPath string) error {
	if err := r.UpdatePlacement(ctx, e); err != nil {
		return err
	}
	if !e.IsFolder || oldPath == e.Path {
		return nil
	}
	_, err := r.RewriteDescendantPaths(ctx, e.ID, oldPath+"/", e.Path+"/")
	return err
}

// SetStarred sets or clears the starred flag.
func (s *HierarchyService) SetStarred(ctx context.Context, ownerID, entryID string, value bool) (*models.Entry, error) {
	return s.setFlag(ctx, ownerID, entryID, func(r entries.Repository, at time.Time) (*models.Entry, error) {
		return r.SetStarred(ctx, ownerID, entryID, value, at)
	})
}

// SetTrashed sets or clears the trashed flag. Children are not affected.
func (s *HierarchyService) SetTrashed(ctx context.Context, ownerID, entryID string, value bool) (*models.Entry, error) {
	return s.setFlag(ctx, ownerID, entryID, func(r entries.Repository, at time.Time) (*models.Entry, error) {
		return r.SetTrashed(ctx, ownerID, entryID, value, at)
	})
}

func (s *HierarchyService) setFlag(ctx context.Context, ownerID, entryID string, apply func(r entries.Repository, at time.Time) (*models.Entry, error)) (*models.Entry, error) {
	if !validID(entryID) {
		return nil, common.ErrorNotFound
	}
	e, err := apply(s.repomanager.Entries(), s.now())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ownerID)
	return e, nil
}

// ReplaceContent points a file at new blob-store content.
func (s *HierarchyService) ReplaceContent(ctx context.Context, ownerID, entryID string, loc models.Location, size int64, kind string) (*models.Entry, error) {
	if err := validateContent(loc, size); err != nil {
		return nil, err
	}
	if !validID(entryID) {
		return nil, common.ErrorNotFound
	}

	r := s.repomanager.Entries()
	e, err := r.ReplaceContent(ctx, ownerID, entryID, loc, size, kind, s.now())
	if errors.Is(err, common.ErrorNotFound) {
		if existing, getErr := r.Get(ctx, entryID); getErr == nil && existing.OwnerID == ownerID && existing.IsFolder {
			return nil, common.ErrorNotAFile
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, ownerID)
	return e, nil
}

// Delete removes an entry. A folder that still has children is only removed
// when cascade is set, in which case its whole subtree goes in one step.
func (s *HierarchyService) Delete(ctx context.Context, ownerID, entryID string, cascade bool) error {
	if !validID(entryID) {
		return common.ErrorNotFound
	}

	var removed int64
	err := s.repomanager.InTx(ctx, func(ctx context.Context, r entries.Repository) error {
		e, err := ownedForUpdate(ctx, r, ownerID, entryID)
		if err != nil {
			return err
		}

		if cascade {
			removed, err = r.DeleteSubtree(ctx, e.ID)
			return err
		}

		if e.IsFolder {
			n, err := r.CountChildren(ctx, e.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %d children", common.ErrorFolderNotEmpty, n)
			}
		}
		removed = 1
		return r.Delete(ctx, e.ID)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, ownerID)
	s.logger.Info(ctx, "entry deleted", "entry_id", entryID, "owner_id", ownerID, "removed", removed)
	return nil
}

// ListChildren returns ownerID's entries directly under parentID (root items
// when nil), ordered by name, then creation time.
func (s *HierarchyService) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, error) {
	if parentID != nil && !validID(*parentID) {
		return []*models.Entry{}, nil
	}

	cached, token, hit, err := s.cache.Lookup(ctx, ownerID, parentID)
	if err != nil {
		s.logger.Warn(ctx, "listing cache lookup failed", "owner_id", ownerID, "error", err)
	}
	if hit {
		return cached, nil
	}

	children, err := s.repomanager.Entries().ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Store(ctx, token, children); err != nil {
		s.logger.Warn(ctx, "listing cache store failed", "owner_id", ownerID, "error", err)
	}
	return children, nil
}

// GetAncestorPath returns the chain from the root down to entryID. A chain
// that does not end at a root is reported, never truncated.
func (s *HierarchyService) GetAncestorPath(ctx context.Context, ownerID, entryID string) ([]*models.Entry, error) {
	if !validID(entryID) {
		return nil, common.ErrorNotFound
	}

	chain, err := s.ancestorChain(ctx, s.repomanager.Entries(), ownerID, entryID)
	if err != nil {
		return nil, err
	}

	path := make([]*models.Entry, len(chain))
	for i, e := range chain {
		path[len(chain)-1-i] = e
	}
	return path, nil
}

// ancestorChain returns entryID followed by its ancestors up to the root.
// The walk is bounded by the owner's entry count: a valid chain can never be
// longer, so reaching the bound without a root means a cycle.
func (s *HierarchyService) ancestorChain(ctx context.Context, r entries.Repository, ownerID, entryID string) ([]*models.Entry, error) {
	limit, err := r.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return nil, common.ErrorNotFound
	}

	chain, err := r.Ancestors(ctx, entryID, limit)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 || chain[0].OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}

	for _, a := range chain {
		if a.OwnerID != ownerID {
			return nil, s.brokenChain(ctx, ownerID, entryID, len(chain))
		}
	}
	if !chain[len(chain)-1].IsRoot() {
		return nil, s.brokenChain(ctx, ownerID, entryID, len(chain))
	}
	return chain, nil
}

func (s *HierarchyService) brokenChain(ctx context.Context, ownerID, entryID string, depth int) error {
	s.logger.Error(ctx, "data corruption: broken ancestor chain", "entry_id", entryID, "owner_id", ownerID, "depth", depth)
	return fmt.Errorf("%w: %w: ancestor chain of %s does not reach a root", common.ErrorIntegrityViolation, common.ErrorNotFound, entryID)
}

// resolveParent returns nil for a root placement, or the folder parentID
// names when it exists and belongs to ownerID.
func (s *HierarchyService) resolveParent(ctx context.Context, r entries.Repository, ownerID string, parentID *string) (*models.Entry, error) {
	if parentID == nil {
		return nil, nil
	}
	if !validID(*parentID) {
		return nil, fmt.Errorf("%w: malformed id %q", common.ErrorInvalidParent, *parentID)
	}

	p, err := r.Get(ctx, *parentID)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: %s does not exist", common.ErrorInvalidParent, *parentID)
	}
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s does not exist", common.ErrorInvalidParent, *parentID)
	}
	if !p.IsFolder {
		return nil, fmt.Errorf("%w: %s is not a folder", common.ErrorInvalidParent, *parentID)
	}
	return p, nil
}

func (s *HierarchyService) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), ownerID); err != nil {
		s.logger.Warn(ctx, "listing cache invalidation failed", "owner_id", ownerID, "error", err)
	}
}

func ownedForUpdate(ctx context.Context, r entries.Repository, ownerID, id string) (*models.Entry, error) {
	e, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return e, nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: name is empty", common.ErrorInvalidName)
	case !utf8.ValidString(name):
		return fmt.Errorf("%w: name is not valid UTF-8", common.ErrorInvalidName)
	case len(name) > common.MaxNameLength:
		return fmt.Errorf("%w: name longer than %d bytes", common.ErrorInvalidName, common.MaxNameLength)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%w: name contains a path separator", common.ErrorInvalidName)
	}
	return nil
}

func validateContent(loc models.Location, size int64) error {
	if err := validateURL(loc.FileURL); err != nil {
		return err
	}
	if loc.ThumbnailURL != "" {
		if err := validateURL(loc.ThumbnailURL); err != nil {
			return err
		}
	}
	if size < 0 {
		return fmt.Errorf("%w: %d", common.ErrorInvalidSize, size)
	}
	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: empty", common.ErrorInvalidLocation)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", common.ErrorInvalidLocation, raw)
	}
	return nil
}

// validID accepts only the 36 character hyphenated form; uuid.Parse also
// takes urn and brace forms that the database rejects.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func childPath(parent *models.Entry, name string) string {
	if parent == nil {
		return "/" + name
	}
	return parent.Path + "/" + name
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func idOrRoot(id *string) string {
	if id == nil {
		return "root"
	}
	return *id
}
