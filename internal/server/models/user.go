// Package models defines the persistent and request-scoped data structures
// shared by repositories, services and the HTTP layer.
package models

import "time"

// Roles stored on the user row and claimed at login.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account. The very first successfully registered
// account becomes admin; every later account defaults to a regular user.
// IsActive=false blocks authentication entirely.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	IsAdmin      bool
	CreatedAt    time.Time
}

// Principal is the authenticated identity attached to a request after
// session validation.
type Principal struct {
	UserID  int64
	Email   string
	IsAdmin bool
	Role    string
}
