// Package httpapi exposes the service layer over HTTP: a chi router, the
// session/admin middleware chain, Prometheus metrics and JSON responses.
package httpapi

import (
	"context"

	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/services"
)

// AuthService is the slice of the auth service the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password, claimedRole string) (*services.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	ResolveSession(ctx context.Context, sessionID string) (*models.Principal, error)
	ResolveToken(ctx context.Context, tokenString string) (*models.Principal, error)
}

// DocumentService is the slice of the document service the handlers need.
type DocumentService interface {
	Upload(ctx context.Context, p *models.Principal, filename string, content []byte) (*models.Document, error)
	List(ctx context.Context, p *models.Principal, page, limit int) ([]*models.Document, int64, error)
	Download(ctx context.Context, p *models.Principal, docID int64) (string, []byte, error)
	Delete(ctx context.Context, p *models.Principal, docID int64) error
}

// AdminService is the slice of the admin service the handlers need.
type AdminService interface {
	ListUsers(ctx context.Context, page, limit int) ([]*models.User, int64, error)
	SetUserStatus(ctx context.Context, admin *models.Principal, userID int64, active bool) error
	DeleteUser(ctx context.Context, admin *models.Principal, userID int64) error
	Dashboard(ctx context.Context) (*services.DashboardData, error)
}

// AuditService is the slice of the audit service the handlers need.
type AuditService interface {
	Query(ctx context.Context, searchTerm string) ([]*models.ActivityLogEntry, error)
}

// Handler holds the services behind the HTTP endpoints.
type Handler struct {
	auth           AuthService
	documents      DocumentService
	admin          AdminService
	audit          AuditService
	logger         logging.Logger
	maxUploadBytes int64
	secureCookies  bool
}

// NewHandler constructs a Handler. secureCookies marks the session cookie
// Secure and belongs on in any deployment terminating TLS.
func NewHandler(auth AuthService, documents DocumentService, admin AdminService, audit AuditService, maxUploadBytes int64, secureCookies bool, logger logging.Logger) *Handler {
	return &Handler{
		auth:           auth,
		documents:      documents,
		admin:          admin,
		audit:          audit,
		logger:         logger.With("component", "httpapi"),
		maxUploadBytes: maxUploadBytes,
		secureCookies:  secureCookies,
	}
}
