package models

import "time"

// UploadTicket carries the signed parameters a client needs to put bytes
// into the Blob Store directly.
type UploadTicket struct {
	// Key is the object-storage key reserved for the upload.
	Key string `json:"key"`
	// UploadURL is a temporary presigned HTTP URL for the client to PUT the bytes.
	UploadURL string `json:"upload_url"`
	// FileURL is the stable reference to store in Entry.Location once the upload completes.
	FileURL string `json:"file_url"`
	// ExpiresAt is when UploadURL stops being accepted.
	ExpiresAt time.Time `json:"expires_at"`
}
