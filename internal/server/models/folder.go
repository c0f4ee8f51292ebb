// Package models defines server-side data models persisted in the database.
package models

import "time"

// Folder is a node of an owner's virtual filesystem tree.
//
// ParentID is nil for root-level folders. Following ParentID from any folder
// must terminate at a root; a non-nil parent always belongs to the same owner.
type Folder struct {
	// ID is an opaque, globally unique identifier.
	ID string
	// Name is the display name, not required to be unique among siblings.
	Name string
	// UserID is the owner; every query is scoped by it.
	UserID string
	// ParentID points at the containing folder, nil at root.
	ParentID *string
	// CreatedAt is set once at creation.
	CreatedAt time.Time
}
