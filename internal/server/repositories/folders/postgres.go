// Package folders persists the folder nodes of each owner's tree.
package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/skydrive/skydrive/internal/common"
	"github.com/skydrive/skydrive/internal/dbx"
	"github.com/skydrive/skydrive/internal/server/models"
)

const folderColumns = "id, name, user_id, parent_id, created_at"

// PostgresRepository implements folder storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new folder row.
func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := `
		INSERT INTO folders (id, name, user_id, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		folder.ID, folder.Name, folder.UserID, folder.ParentID, folder.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the folder with the given id if it belongs to userID.
func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM folders WHERE id=$1 AND user_id=$2`

	item := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&item.ID, &item.Name, &item.UserID, &item.ParentID, &item.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select folder: %w", err)
	}
	return item, nil
}

// ListByParent returns userID's folders directly under parentID,
// ordered by name. A nil parentID lists root-level folders.
func (r *PostgresRepository) ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Folder, error) {
	var rows *sql.Rows
	var err error
	if parentID == nil {
		query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id=$1 AND parent_id IS NULL ORDER BY name ASC`
		rows, err = r.db.QueryContext(ctx, query, userID)
	} else {
		query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id=$1 AND parent_id=$2 ORDER BY name ASC`
		rows, err = r.db.QueryContext(ctx, query, userID, *parentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	return scanFolders(rows)
}

// ListByParents returns userID's folders whose parent is any of parentIDs.
// Used by the iterative subtree walks in the tree manager.
func (r *PostgresRepository) ListByParents(ctx context.Context, userID string, parentIDs []string) ([]*models.Folder, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id=$1 AND parent_id IN (` +
		dbx.Placeholders(2, len(parentIDs)) + `)`
	rows, err := r.db.QueryContext(ctx, query, append([]any{userID}, dbx.Args(parentIDs)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	return scanFolders(rows)
}

// ListByIDs returns the subset of ids that are folders owned by userID.
func (r *PostgresRepository) ListByIDs(ctx context.Context, userID string, ids []string) ([]*models.Folder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + folderColumns + ` FROM folders WHERE user_id=$1 AND id IN (` +
		dbx.Placeholders(2, len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, query, append([]any{userID}, dbx.Args(ids)...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	return scanFolders(rows)
}

// SetParent repoints the given folders at parentID (nil moves them to root).
// Folders not owned by userID are silently unaffected.
func (r *PostgresRepository) SetParent(ctx context.Context, userID string, ids []string, parentID *string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE folders SET parent_id=$2 WHERE user_id=$1 AND id IN (` +
		dbx.Placeholders(3, len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, append([]any{userID, parentID}, dbx.Args(ids)...)...)
	if err != nil {
		return fmt.Errorf("failed to move folders: %w", err)
	}
	return nil
}

// Rename updates the folder's display name. Exactly one row must be affected.
func (r *PostgresRepository) Rename(ctx context.Context, userID, id, name string) error {
	query := `UPDATE folders SET name=$1 WHERE id=$2 AND user_id=$3`
	result, err := r.db.ExecContext(ctx, query, name, id, userID)
	if err != nil {
		return fmt.Errorf("failed to rename folder: %w", err)
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

// DeleteByIDs removes the given folders owned by userID. Descendant rows are
// removed by the ON DELETE CASCADE constraints.
func (r *PostgresRepository) DeleteByIDs(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM folders WHERE user_id=$1 AND id IN (` +
		dbx.Placeholders(2, len(ids)) + `)`
	_, err := r.db.ExecContext(ctx, query, append([]any{userID}, dbx.Args(ids)...)...)
	if err != nil {
		return fmt.Errorf("failed to delete folders: %w", err)
	}
	return nil
}

// SearchByName returns userID's folders whose name contains query,
// case-insensitively, ordered by name.
func (r *PostgresRepository) SearchByName(ctx context.Context, userID, query string) ([]*models.Folder, error) {
	q := `SELECT ` + folderColumns + ` FROM folders WHERE user_id=$1 AND name ILIKE $2 ESCAPE '\' ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, q, userID, dbx.LikePattern(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search folders: %w", err)
	}
	return scanFolders(rows)
}

func scanFolders(rows *sql.Rows) ([]*models.Folder, error) {
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		var item models.Folder
		if err := rows.Scan(&item.ID, &item.Name, &item.UserID, &item.ParentID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
