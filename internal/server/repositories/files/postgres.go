// Package files persists file metadata rows; the payload bytes live in
// object storage under each row's storage key.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/dbx"
	"github.com/skydrive/skydrive/internal/server/models"
)

const fileColumns = "id, name, original_name, size, mime_type, storage_key, user_id, folder_id, created_at"

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new file row.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (id, name, original_name, size, mime_type, storage_key, user_id, folder_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.Name, file.OriginalName, file.Size, file.MimeType,
		file.StorageKey, file.UserID, file.FolderID, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the file with the given id if it belongs to userID.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id=$1 AND user_id=$2`

	item := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&item.ID, &item.Name, &item.OriginalName, &item.Size, &item.MimeType,
		&item.StorageKey, &item.UserID, &item.FolderID, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return item, nil
}

// ListByFolder returns userID's files directly inside folderID, ordered by
// name. A nil folderID lists root-level files.
func (r *PostgresRepository) ListByFolder(ctx context.Context, userID string, folderID *string) ([]*models.File, error) {
	var rows *sql.Rows
	var err error
	if folderID == nil {
		query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND folder_id IS NULL ORDER BY name ASC`
		rows, err = r.db.QueryContext(ctx, query, userID)
	} else {
		query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND folder_id=$2 ORDER BY name ASC`
		rows, err = r.db.QueryContext(ctx, query, userID, *folderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	return scanFiles(rows)
}

// ListByFolders returns userID's files inside any of folderIDs. Used by the
// iterative subtree walks in the tree manager.
func (r *PostgresRepository) ListByFolders(ctx context.Context, userID string, folderIDs []string) ([]*models.File, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND folder_id IN (` +
		dbx.Placeholders(2, len(folderIDs)) + `)`
	rows, err := r.db.QueryContext(ctx, query, append([]any{userID}, dbx.Args(folderIDs)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	return scanFiles(rows)
}

// ListByIDs returns the subset of ids that are files owned by userID.
func (r *PostgresRepository) ListByIDs(ctx context.Context, userID string, ids []string) ([]*models.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND id IN (` +
		dbx.Placeholders(2, len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, append([]any{userID}, dbx.Args(ids)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	return scanFiles(rows)
}

// SetFolder moves the given files into folderID (nil moves them to root).
// Files not owned by userID are silently unaffected.
func (r *PostgresRepository) SetFolder(ctx context.Context, userID string, ids []string, folderID *string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE files SET folder_id=$2 WHERE user_id=$1 AND id IN (` +
		dbx.Placeholders(3, len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, append([]any{userID, folderID}, dbx.Args(ids)...)...)
	if err != nil {
		return fmt.Errorf("failed to move files: %w", err)
	}
	return nil
}

// Rename updates the file's display name. Exactly one row must be affected.
func (r *PostgresRepository) Rename(ctx context.Context, userID, id, name string) error {
	query := `UPDATE files SET name=$1 WHERE id=$2 AND user_id=$3`
	result, err := r.db.ExecContext(ctx, query, name, id, userID)
	if err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}
	ra, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// DeleteByIDs removes the given file rows owned by userID.
func (r *PostgresRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM files WHERE user_id=$1 AND id IN (` +
		dbx.Placeholders(2, len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, append([]any{userID}, dbx.Args(ids)...)...)
	if err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

// SumSize returns the total byte size of all files owned by userID.
func (r *PostgresRepository) SumSize(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COALESCE(SUM(size), 0) FROM files WHERE user_id=$1`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum file sizes: %w", err)
	}
	return total, nil
}

// UsageByMime aggregates size and count per distinct MIME type for userID.
func (r *PostgresRepository) UsageByMime(ctx context.Context, userID string) ([]models.MimeUsage, error) {
	query := `SELECT mime_type, COALESCE(SUM(size), 0), COUNT(*) FROM files WHERE user_id=$1 GROUP BY mime_type`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate usage: %w", err)
	}
	defer rows.Close()

	var result []models.MimeUsage
	for rows.Next() {
		var item models.MimeUsage
		if err := rows.Scan(&item.MimeType, &item.Size, &item.Count); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SearchByName returns userID's files whose display name or original name
// contains query, case-insensitively, ordered by name.
func (r *PostgresRepository) SearchByName(ctx context.Context, userID, query string) ([]*models.File, error) {
	q := `SELECT ` + fileColumns + ` FROM files WHERE user_id=$1 AND (name ILIKE $2 ESCAPE '\' OR original_name ILIKE $2 ESCAPE '\') ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, userID, dbx.LikePattern(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	return scanFiles(rows)
}

func scanFiles(rows *sql.Rows) ([]*models.File, error) {
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(
			&item.ID, &item.Name, &item.OriginalName, &item.Size, &item.MimeType,
			&item.StorageKey, &item.UserID, &item.FolderID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
