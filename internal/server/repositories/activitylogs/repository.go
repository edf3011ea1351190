package activitylogs

import (
	"context"

	"github.com/avolkov/docvault/internal/server/models"
)

// Repository is the persistence contract for the append-only audit log.
type Repository interface {
	Create(ctx context.Context, userID int64, action string) error
	Query(ctx context.Context, searchTerm string) ([]*models.ActivityLogEntry, error)
	Recent(ctx context.Context, limit int) ([]*models.ActivityLogEntry, error)
}
