package models

import "time"

// Session is a server-held login session. The ID is a random hex string
// handed to the client as a cookie; the row disappears on logout or expiry.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}
