package models

import "time"

// EntityKind discriminates the variants of Entity.
type EntityKind string

const (
	KindFolder EntityKind = "folder"
	KindFile   EntityKind = "file"
)

// Entity is the tagged "file or folder" union returned by tree listings and
// search. Exactly one of Folder/File is non-nil, matching Kind.
type Entity struct {
	Kind   EntityKind
	Folder *Folder
	File   *File
}

// FolderEntity wraps a folder.
func FolderEntity(f *Folder) Entity {
	return Entity{Kind: KindFolder, Folder: f}
}

// FileEntity wraps a file.
func FileEntity(f *File) Entity {
	return Entity{Kind: KindFile, File: f}
}

// ID returns the identifier of the underlying entity.
func (e Entity) ID() string {
	if e.Kind == KindFolder {
		return e.Folder.ID
	}
	return e.File.ID
}

// Name returns the display name of the underlying entity.
func (e Entity) Name() string {
	if e.Kind == KindFolder {
		return e.Folder.Name
	}
	return e.File.Name
}

// ParentID returns the containing folder id, nil at root.
func (e Entity) ParentID() *string {
	if e.Kind == KindFolder {
		return e.Folder.ParentID
	}
	return e.File.FolderID
}

// CreatedAt returns the creation timestamp of the underlying entity.
func (e Entity) CreatedAt() time.Time {
	if e.Kind == KindFolder {
		return e.Folder.CreatedAt
	}
	return e.File.CreatedAt
}
