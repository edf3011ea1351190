package models

import "time"

// Document statuses.
const (
	DocumentActive  = "active"
	DocumentDeleted = "deleted"
)

// Document is the metadata row for one uploaded file. Name is the sanitized
// original filename, kept for display and Content-Disposition only.
// StorageKey is a server-generated opaque key pointing at the ciphertext
// blob; it never derives from user input.
type Document struct {
	ID         int64
	Name       string
	StorageKey string
	OwnerID    int64
	Status     string
	UploadDate time.Time
}
