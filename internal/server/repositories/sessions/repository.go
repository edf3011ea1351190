package sessions

import (
	"context"
	"time"

	"github.com/avolkov/docvault/internal/server/models"
)

// Repository is the persistence contract for server-held login sessions.
type Repository interface {
	Create(ctx context.Context, id string, userID int64, validity time.Duration) error
	Find(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}
