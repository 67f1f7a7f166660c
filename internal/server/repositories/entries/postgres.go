// Package entries provides repositories for the entries table: a
// PostgreSQL implementation over dbx.DBTX and an in-memory one.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/dbx"
	"github.com/dmitrijs2005/gophdrive/internal/server/models"
)

const entryColumns = `id, name, path, owner_id, parent_id, is_folder, file_url, thumbnail_url, size, kind, is_starred, is_trashed, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (*models.Entry, error) {
	var (
		e      models.Entry
		parent sql.NullString
		thumb  sql.NullString
	)
	if err := s.Scan(
		&e.ID, &e.Name, &e.Path, &e.OwnerID, &parent, &e.IsFolder,
		&e.Location.FileURL, &thumb, &e.Size, &e.Kind,
		&e.IsStarred, &e.IsTrashed, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if parent.Valid {
		p := parent.String
		e.ParentID = &p
	}
	e.Location.ThumbnailURL = thumb.String
	return &e, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parentArg(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// Create inserts a new entry row.
func (r *PostgresRepository) Create(ctx context.Context, e *models.Entry) error {
	query := `INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Name, e.Path, e.OwnerID, parentArg(e.ParentID), e.IsFolder,
		e.Location.FileURL, nullable(e.Location.ThumbnailURL), e.Size, e.Kind,
		e.IsStarred, e.IsTrashed, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// Get returns the entry by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Entry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = $1`, id)
}

// GetForUpdate returns the entry by id and locks its row.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Entry, error) {
	return r.getOne(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select entry: %w", err)
	}
	return e, nil
}

// ListChildren returns the direct children of parentID owned by ownerID.
func (r *PostgresRepository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if parentID == nil {
		rows, err = r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries
			WHERE owner_id = $1 AND parent_id IS NULL
			ORDER BY name COLLATE "C", created_at, id`, ownerID)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries
			WHERE owner_id = $1 AND parent_id = $2
			ORDER BY name COLLATE "C", created_at, id`, ownerID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select children: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*models.Entry, error) {
	defer rows.Close()

	result := []*models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountChildren returns the number of entries whose parent is id.
func (r *PostgresRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM entries WHERE parent_id = $1`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count children: %w", err)
	}
	return n, nil
}

// CountByOwner returns the number of entries owned by ownerID.
func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM entries WHERE owner_id = $1`, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// Ancestors walks parent links upwards from id with a depth-bounded
// recursive query.
func (r *PostgresRepository) Ancestors(ctx context.Context, id string, limit int64) ([]*models.Entry, error) {
	query := `WITH RECURSIVE chain AS (
			SELECT ` + entryColumns + `, 1 AS depth FROM entries WHERE id = $1
			UNION ALL
			SELECT e.id, e.name, e.path, e.owner_id, e.parent_id, e.is_folder, e.file_url, e.thumbnail_url,
				e.size, e.kind, e.is_starred, e.is_trashed, e.created_at, e.updated_at, c.depth + 1
			FROM entries e JOIN chain c ON e.id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT ` + entryColumns + ` FROM chain ORDER BY depth`

	rows, err := r.db.QueryContext(ctx, query, id, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select ancestors: %w", err)
	}
	return collect(rows)
}

// UpdatePlacement writes the parent, name, path and updated_at of e.
func (r *PostgresRepository) UpdatePlacement(ctx context.Context, e *models.Entry) error {
	query := `UPDATE entries SET parent_id = $2, name = $3, path = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, e.ID, parentArg(e.ParentID), e.Name, e.Path, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return expectOne(res)
}

// RewriteDescendantPaths swaps the path prefix of every descendant of id.
// UNION drops rows already visited, so a parent cycle in stored data ends
// the recursion instead of looping.
func (r *PostgresRepository) RewriteDescendantPaths(ctx context.Context, id, oldPrefix, newPrefix string) (int64, error) {
	query := `WITH RECURSIVE sub AS (
			SELECT id FROM entries WHERE parent_id = $1
			UNION
			SELECT e.id FROM entries e JOIN sub s ON e.parent_id = s.id
		)
		UPDATE entries SET path = $3::text || substr(path, length($2::text) + 1)
		WHERE id IN (SELECT id FROM sub) AND id <> $1`

	res, err := r.db.ExecContext(ctx, query, id, oldPrefix, newPrefix)
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite paths: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// SetStarred sets the starred flag of an entry owned by ownerID.
func (r *PostgresRepository) SetStarred(ctx context.Context, ownerID, id string, value bool, at time.Time) (*models.Entry, error) {
	return r.getOne(ctx, `UPDATE entries SET is_starred = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2 RETURNING `+entryColumns, id, ownerID, value, at)
}

// SetTrashed sets the trashed flag of an entry owned by ownerID.
func (r *PostgresRepository) SetTrashed(ctx context.Context, ownerID, id string, value bool, at time.Time) (*models.Entry, error) {
	return r.getOne(ctx, `UPDATE entries SET is_trashed = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2 RETURNING `+entryColumns, id, ownerID, value, at)
}

// ReplaceContent points a file entry at new content.
func (r *PostgresRepository) ReplaceContent(ctx context.Context, ownerID, id string, loc models.Location, size int64, kind string, at time.Time) (*models.Entry, error) {
	return r.getOne(ctx, `UPDATE entries SET file_url = $3, thumbnail_url = $4, size = $5, kind = $6, updated_at = $7
		WHERE id = $1 AND owner_id = $2 AND NOT is_folder RETURNING `+entryColumns,
		id, ownerID, loc.FileURL, nullable(loc.ThumbnailURL), size, kind, at)
}

// Delete removes a single entry row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return expectOne(res)
}

// DeleteSubtree removes id and every descendant of it. Like
// RewriteDescendantPaths it terminates on cyclic parent links.
func (r *PostgresRepository) DeleteSubtree(ctx context.Context, id string) (int64, error) {
	query := `WITH RECURSIVE sub AS (
			SELECT id FROM entries WHERE id = $1
			UNION
			SELECT e.id FROM entries e JOIN sub s ON e.parent_id = s.id
		)
		DELETE FROM entries WHERE id IN (SELECT id FROM sub)`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete subtree: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return 0, common.ErrorNotFound
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
