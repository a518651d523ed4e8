package repository

import (
	"context"

	"github.com/mkravch/kinofav/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	UpdateFavorites(ctx context.Context, userID int64, favorites []int64) error
}
