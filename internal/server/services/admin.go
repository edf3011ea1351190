package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/logging"
	"github.com/avolkov/docvault/internal/server/models"
	"github.com/avolkov/docvault/internal/server/repositories/repomanager"
)

// recentActivityLimit is how many audit entries the dashboard shows.
const recentActivityLimit = 7

// DashboardData is the aggregate view behind the admin dashboard.
type DashboardData struct {
	TotalDocuments   int64
	TotalUsers       int64
	RecentActivities []*models.ActivityLogEntry
}

// AdminService implements account administration. The HTTP layer verifies
// the caller is an admin before any of these run; the admin principal is
// still taken as a parameter so the audit trail names the actor.
type AdminService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	audit  *AuditService
	logger logging.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *sql.DB, rm repomanager.RepositoryManager, audit *AuditService, logger logging.Logger) *AdminService {
	return &AdminService{
		db:     db,
		rm:     rm,
		audit:  audit,
		logger: logger.With("component", "admin"),
	}
}

// ListUsers returns one page of accounts plus the total count.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) ([]*models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	repo := s.rm.Users(s.db)
	list, err := repo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// SetUserStatus toggles is_active on the target account and records who
// did it.
func (s *AdminService) SetUserStatus(ctx context.Context, admin *models.Principal, userID int64, active bool) error {
	if err := s.rm.Users(s.db).SetActive(ctx, userID, active); err != nil {
		return err
	}

	verb := "Deactivated"
	if active {
		verb = "Activated"
	}
	s.audit.Record(ctx, admin.UserID, fmt.Sprintf("%s user with ID %d", verb, userID))
	return nil
}

// DeleteUser removes the target account. The audit entry joins the same
// transaction and is written first, so the action survives the deletion
// it describes even though the target's own rows cascade away.
func (s *AdminService) DeleteUser(ctx context.Context, admin *models.Principal, userID int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		action := fmt.Sprintf("Admin with ID %d deleted user with ID %d", admin.UserID, userID)
		if err := s.audit.RecordTx(ctx, tx, admin.UserID, action); err != nil {
			return err
		}
		return s.rm.Users(tx).Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "user deleted", "admin_id", admin.UserID, "user_id", userID)
	return nil
}

// Dashboard returns the totals and recent activity for the dashboard view.
func (s *AdminService) Dashboard(ctx context.Context) (*DashboardData, error) {
	totalDocs, err := s.rm.Documents(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}
	totalUsers, err := s.rm.Users(s.db).Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.audit.Recent(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	return &DashboardData{
		TotalDocuments:   totalDocs,
		TotalUsers:       totalUsers,
		RecentActivities: recent,
	}, nil
}
