// Package hierarchy defines the wire contract of the gophdrive.HierarchyService
// gRPC service: request and response messages, the JSON codec that carries
// them, the service descriptor and a typed client.
package hierarchy

import "time"

type Location struct {
	FileURL      string `json:"file_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	ParentID  *string   `json:"parent_id,omitempty"`
	IsFolder  bool      `json:"is_folder"`
	Location  Location  `json:"location"`
	Size      int64     `json:"size"`
	Kind      string    `json:"kind,omitempty"`
	IsStarred bool      `json:"is_starred"`
	IsTrashed bool      `json:"is_trashed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"`
}

type CreateFileRequest struct {
	Name     string   `json:"name"`
	ParentID *string  `json:"parent_id,omitempty"`
	Location Location `json:"location"`
	Size     int64    `json:"size"`
	Kind     string   `json:"kind,omitempty"`
}

// MoveRequest moves EntryID under NewParentID, or to the root when it is nil.
type MoveRequest struct {
	EntryID     string  `json:"entry_id"`
	NewParentID *string `json:"new_parent_id,omitempty"`
}

type RenameRequest struct {
	EntryID string `json:"entry_id"`
	NewName string `json:"new_name"`
}

// SetFlagRequest is shared by SetStarred and SetTrashed.
type SetFlagRequest struct {
	EntryID string `json:"entry_id"`
	Value   bool   `json:"value"`
}

type ReplaceContentRequest struct {
	EntryID  string   `json:"entry_id"`
	Location Location `json:"location"`
	Size     int64    `json:"size"`
	Kind     string   `json:"kind,omitempty"`
}

type DeleteRequest struct {
	EntryID string `json:"entry_id"`
	Cascade bool   `json:"cascade"`
}

type DeleteResponse struct{}

type ListChildrenRequest struct {
	ParentID *string `json:"parent_id,omitempty"`
}

type GetAncestorPathRequest struct {
	EntryID string `json:"entry_id"`
}

type EntryResponse struct {
	Entry *Entry `json:"entry"`
}

type EntriesResponse struct {
	Entries []*Entry `json:"entries"`
}

type GetUploadParamsRequest struct{}

type GetUploadParamsResponse struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
