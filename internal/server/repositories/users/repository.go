package users

import (
	"context"

	"github.com/skydrive/skydrive/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) error
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	Delete(ctx context.Context, userID string) error
}
