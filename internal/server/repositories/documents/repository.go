package documents

import (
	"context"

	"github.com/avolkov/docvault/internal/server/models"
)

// Repository is the persistence contract for document metadata.
type Repository interface {
	Create(ctx context.Context, doc *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	ListActive(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Document, error)
	CountActive(ctx context.Context, ownerID int64) (int64, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// AllOwners selects documents regardless of owner in ListActive/CountActive;
// only admin callers may pass it.
const AllOwners int64 = 0
