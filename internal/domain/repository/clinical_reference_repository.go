package repository

import (
	"context"

	"clinica-dental-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClinicalReferenceRepository counts clinical records (appointments,
// treatment plans, prescriptions) pointing at a profile variant.
type ClinicalReferenceRepository interface {
	CountReferences(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (entity.ClinicalReferences, error)
}
