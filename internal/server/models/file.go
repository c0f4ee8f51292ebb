package models

import "time"

// File describes metadata for a binary payload stored in object storage.
// The bytes themselves live at StorageKey in the configured bucket.
type File struct {
	// ID is an opaque, globally unique identifier.
	ID string
	// Name is the sanitized display name.
	Name string
	// OriginalName is the filename as supplied by the user at upload time.
	OriginalName string
	// Size in bytes, never negative.
	Size int64
	// MimeType as declared by the client, nil when unknown.
	MimeType *string
	// StorageKey is the object-storage key of the payload. Copies of a file
	// share the key; the bytes are not duplicated.
	StorageKey string
	// UserID is the owner of the file.
	UserID string
	// FolderID points at the containing folder, nil at root.
	FolderID *string
	// CreatedAt is set once at creation.
	CreatedAt time.Time
}
