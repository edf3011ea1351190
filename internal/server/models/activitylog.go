package models

import "time"

// ActivityLogEntry is one append-only audit record. Entries are never
// updated or deleted.
type ActivityLogEntry struct {
	ID        int64
	UserID    int64
	Action    string
	Timestamp time.Time
}
