package repository

import (
	"context"

	"clinica-dental-backend/internal/domain/entity"
	domainRepo "clinica-dental-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Generic Profile Repository

type profileRepository struct{}

func NewProfileRepository() domainRepo.ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Exists(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (bool, error) {
	model, err := entity.NewProfile(kind, userID)
	if err != nil {
		return false, err
	}
	var count int64
	err = db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts an empty profile.
func (r *profileRepository) Create(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) error {
	model, err := entity.NewProfile(kind, userID)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(model).Error
}

func (r *profileRepository) Delete(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) error {
	model, err := entity.NewProfile(kind, userID)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Where("user_id = ?", userID).Delete(model).Error
}

// Patient Profile Repository

type patientProfileRepository struct{}

func NewPatientProfileRepository() domainRepo.PatientProfileRepository {
	return &patientProfileRepository{}
}

func (r *patientProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.PatientProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}

// Dentist Profile Repository

type dentistProfileRepository struct{}

func NewDentistProfileRepository() domainRepo.DentistProfileRepository {
	return &dentistProfileRepository{}
}

func (r *dentistProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.DentistProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}

// Receptionist Profile Repository

type receptionistProfileRepository struct{}

func NewReceptionistProfileRepository() domainRepo.ReceptionistProfileRepository {
	return &receptionistProfileRepository{}
}

func (r *receptionistProfileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.ReceptionistProfile) error {
	return db.WithContext(ctx).Create(profile).Error
}
