package models

import "time"

// User is an account owning a tree of folders and files.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
