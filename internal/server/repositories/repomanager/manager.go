package repomanager

import (
	"context"
	"database/sql"

	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/server/repositories/activitylogs"
	"github.com/avolkov/docvault/internal/server/repositories/documents"
	"github.com/avolkov/docvault/internal/server/repositories/sessions"
	"github.com/avolkov/docvault/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run several repositories inside one transaction by passing
// the same *sql.Tx to each.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Documents(db dbx.DBTX) documents.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	ActivityLogs(db dbx.DBTX) activitylogs.Repository
}
