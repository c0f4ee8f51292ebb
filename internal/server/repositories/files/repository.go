package files

import (
	"context"

	"github.com/skydrive/skydrive/internal/server/models"
)

// Repository is the owner-scoped persistence contract for file metadata.
// Every method filters by userID; ids belonging to other owners are
// invisible.
type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, userID, id string) (*models.File, error)
	ListByFolder(ctx context.Context, userID string, folderID *string) ([]*models.File, error)
	ListByFolders(ctx context.Context, userID string, folderIDs []string) ([]*models.File, error)
	ListByIDs(ctx context.Context, userID string, ids []string) ([]*models.File, error)
	SetFolder(ctx context.Context, userID string, ids []string, folderID *string) error
	Rename(ctx context.Context, userID, id, name string) error
	DeleteByIDs(ctx context.Context, userID string, ids []string) error
	SumSize(ctx context.Context, userID string) (int64, error)
	UsageByMime(ctx context.Context, userID string) ([]models.MimeUsage, error)
	SearchByName(ctx context.Context, userID, query string) ([]*models.File, error)
}
