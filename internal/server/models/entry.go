// Package models defines server-side data models persisted in the database.
package models

import "time"

// Location points into the Blob Store. Both values are opaque references
// obtained through the upload handshake.
type Location struct {
	FileURL      string `json:"file_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Entry is one node of an owner's file/folder tree.
type Entry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	OwnerID string  `json:"owner_id"`
	// ParentID is nil for root items.
	ParentID *string `json:"parent_id,omitempty"`

	IsFolder bool     `json:"is_folder"`
	Location Location `json:"location"`
	Size     int64    `json:"size"`
	Kind     string   `json:"kind"`

	IsStarred bool `json:"is_starred"`
	IsTrashed bool `json:"is_trashed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.ParentID != nil {
		p := *e.ParentID
		c.ParentID = &p
	}
	return &c
}

// IsRoot reports whether e has no parent.
func (e *Entry) IsRoot() bool {
	return e.ParentID == nil
}
