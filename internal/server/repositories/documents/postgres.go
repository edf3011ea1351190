// Package documents provides a PostgreSQL-backed repository for document
// metadata. Ciphertext itself lives in the blob store; rows here only carry
// the display name, the opaque storage key and ownership.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/docvault/internal/common"
	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a metadata row with status=active.
func (r *PostgresRepository) Create(ctx context.Context, doc *models.Document) (*models.Document, error) {
	query := `
		INSERT INTO documents (name, storage_key, user_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, upload_date
	`
	err := r.db.QueryRowContext(ctx, query,
		doc.Name, doc.StorageKey, doc.OwnerID, doc.Status).
		Scan(&doc.ID, &doc.UploadDate)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc, nil
}

// GetByID returns the metadata row for the given id regardless of status or
// owner; access decisions belong to the policy layer.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := `
		SELECT id, name, storage_key, user_id, status, upload_date
		FROM documents
		WHERE id = $1
	`
	doc := &models.Document{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&doc.ID, &doc.Name, &doc.StorageKey, &doc.OwnerID, &doc.Status, &doc.UploadDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return doc, nil
}

// ListActive returns a page of active documents, most recent upload first.
// ownerID == AllOwners lists every owner's documents (admin view).
func (r *PostgresRepository) ListActive(ctx context.Context, ownerID int64, limit, offset int) ([]*models.Document, error) {
	query := `
		SELECT id, name, storage_key, user_id, status, upload_date
		FROM documents
		WHERE status = 'active' AND ($1 = 0 OR user_id = $1)
		ORDER BY upload_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		var item models.Document
		if err := rows.Scan(&item.ID, &item.Name, &item.StorageKey, &item.OwnerID,
			&item.Status, &item.UploadDate); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountActive counts active documents for the given owner
// (AllOwners counts everything).
func (r *PostgresRepository) CountActive(ctx context.Context, ownerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM documents WHERE status = 'active' AND ($1 = 0 OR user_id = $1)`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Count returns the total number of document rows (dashboard figure).
func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// Delete removes the metadata row.
// If the row does not exist, it returns common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
