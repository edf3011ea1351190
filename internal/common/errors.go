// Package common defines shared constants and sentinel errors used across
// DocVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Auth-specific errors.
	ErrorEmailExists        = errors.New("email already exists")
	ErrorAdminExists        = errors.New("admin account already exists")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorAccountDisabled    = errors.New("account disabled")
	ErrorRoleMismatch       = errors.New("role mismatch")
	ErrorInvalidToken       = errors.New("invalid token")

	// Cipher errors. ErrorCiphertextInvalid means the authentication tag
	// check failed: tampered, truncated or foreign-key data.
	ErrorInvalidInput      = errors.New("invalid input")
	ErrorCiphertextInvalid = errors.New("invalid or corrupted ciphertext")

	// Storage errors.
	ErrorStorageWrite = errors.New("storage write failed")
	ErrorFileMissing  = errors.New("file missing from storage")
)
