package folders

import (
	"context"

	"github.com/skydrive/skydrive/internal/server/models"
)

// Repository is the owner-scoped persistence contract for folders. Every
// method filters by userID; ids belonging to other owners are invisible.
type Repository interface {
	Create(ctx context.Context, folder *models.Folder) error
	GetByID(ctx context.Context, userID, id string) (*models.Folder, error)
	ListByParent(ctx context.Context, userID string, parentID *string) ([]*models.Folder, error)
	ListByParents(ctx context.Context, userID string, parentIDs []string) ([]*models.Folder, error)
	ListByIDs(ctx context.Context, userID string, ids []string) ([]*models.Folder, error)
	SetParent(ctx context.Context, userID string, ids []string, parentID *string) error
	Rename(ctx context.Context, userID, id, name string) error
	DeleteByIDs(ctx context.Context, userID string, ids []string) error
	SearchByName(ctx context.Context, userID, query string) ([]*models.Folder, error)
}
