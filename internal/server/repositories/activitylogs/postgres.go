// Package activitylogs provides a PostgreSQL-backed repository for the
// append-only activity audit log. Rows are only ever inserted and read.
package activitylogs

import (
	"context"
	"fmt"

	"github.com/avolkov/docvault/internal/dbx"
	"github.com/avolkov/docvault/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx), so audit entries can join the caller's
// transaction where one exists.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends one audit entry.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, action string) error {
	query := `
		INSERT INTO activity_logs (user_id, action)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, userID, action); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Query returns entries whose user_id or action contains searchTerm as a
// substring; an empty term returns everything, newest first.
func (r *PostgresRepository) Query(ctx context.Context, searchTerm string) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT id, user_id, action, timestamp
		FROM activity_logs
		WHERE $1 = '' OR user_id::text LIKE '%' || $1 || '%' OR action LIKE '%' || $1 || '%'
		ORDER BY timestamp DESC, id DESC
	`
	return r.selectEntries(ctx, query, searchTerm)
}

// Recent returns the latest limit entries, newest first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]*models.ActivityLogEntry, error) {
	query := `
		SELECT id, user_id, action, timestamp
		FROM activity_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT $1
	`
	return r.selectEntries(ctx, query, limit)
}

func (r *PostgresRepository) selectEntries(ctx context.Context, query string, args ...any) ([]*models.ActivityLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.ActivityLogEntry
	for rows.Next() {
		var item models.ActivityLogEntry
		if err := rows.Scan(&item.ID, &item.UserID, &item.Action, &item.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
