// Package policy holds the pure access-control decisions. It has no I/O:
// callers load the principal and the document, policy only answers yes/no.
//
// Two deliberate policies coexist, one per resource class:
//   - document routes conflate "does not exist" and "not yours" into a
//     single not-found answer so existence is never confirmed to outsiders;
//   - admin-scoped routes answer with an explicit forbidden when the caller
//     is authenticated but not an admin.
package policy

import "github.com/avolkov/docvault/internal/server/models"

// CanAccessDocument reports whether p may download or delete doc.
// Admins may access any document regardless of owner or status. Everyone
// else only their own documents, and only while active; ownership is
// checked before status.
func CanAccessDocument(p *models.Principal, doc *models.Document) bool {
	if p == nil || doc == nil {
		return false
	}
	if p.IsAdmin {
		return true
	}
	if doc.OwnerID != p.UserID {
		return false
	}
	return doc.Status == models.DocumentActive
}

// ListScopeOwner returns the owner filter for document listing:
// 0 (no filter) for admins, the principal's own id otherwise.
func ListScopeOwner(p *models.Principal) int64 {
	if p.IsAdmin {
		return 0
	}
	return p.UserID
}

// IsAdmin reports whether p may use admin-scoped operations.
func IsAdmin(p *models.Principal) bool {
	return p != nil && p.IsAdmin
}
