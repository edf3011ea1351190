// Package services contains the business operations behind the HTTP API:
// authentication, document storage, administration and the activity audit
// log. Services own no SQL; they compose repositories, the cipher and the
// blob store.
package services

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/repositories/repomanager"
)

// auditWriteFailures counts audit entries that could not be persisted.
// Best-effort writes must never fail the primary operation, but a dropped
// entry has to show up somewhere.
var auditWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "docvault_audit_write_failures_total",
	Help: "Number of activity log entries that failed to persist",
})

// AuditService appends and queries the activity log.
type AuditService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *AuditService {
	return &AuditService{
		db:     db,
		rm:     rm,
		logger: logger.With("component", "audit"),
	}
}

// Record appends an entry best-effort: a write failure is logged and counted
// but never propagated, so the operation being audited stands.
func (s *AuditService) Record(ctx context.Context, userID int64, action string) {
	if err := s.rm.ActivityLogs(s.db).Create(ctx, userID, action); err != nil {
		auditWriteFailures.Inc()
		s.logger.Error(ctx, "audit write failed", "user_id", userID, "action", action, "error", err.Error())
	}
}

// RecordTx appends an entry inside the caller's transaction. Unlike Record,
// the error propagates: the caller asked for atomicity with its own writes.
func (s *AuditService) RecordTx(ctx context.Context, tx dbx.DBTX, userID int64, action string) error {
	return s.rm.ActivityLogs(tx).Create(ctx, userID, action)
}

// Query returns entries matching the substring filter (empty matches all).
func (s *AuditService) Query(ctx context.Context, searchTerm string) ([]*models.ActivityLogEntry, error) {
	return s.rm.ActivityLogs(s.db).Query(ctx, searchTerm)
}

// Recent returns the latest limit entries for the dashboard.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]*models.ActivityLogEntry, error) {
	return s.rm.ActivityLogs(s.db).Recent(ctx, limit)
}
