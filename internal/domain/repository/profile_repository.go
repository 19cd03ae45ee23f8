package repository

import (
	"context"

	"clinica-dental-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository manages the profile variants generically by kind.
type ProfileRepository interface {
	Exists(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (bool, error)
	Create(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) error
	Delete(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) error
}

type PatientProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error
}

type DentistProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.DentistProfile) error
}

type ReceptionistProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.ReceptionistProfile) error
}
