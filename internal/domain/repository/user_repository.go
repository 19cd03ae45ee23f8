package repository

import (
	"context"

	"clinica-dental-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, db *gorm.DB, user *entity.User) error
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*entity.User, error)
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.User, error)
	// FindAllWithProfiles pages through users ordered by id, with role and
	// every profile variant preloaded.
	FindAllWithProfiles(ctx context.Context, db *gorm.DB, limit, offset int) ([]entity.User, error)
	Update(ctx context.Context, db *gorm.DB, user *entity.User) error
	Delete(ctx context.Context, db *gorm.DB, id uuid.UUID) (int64, error)
}
