package repository

import (
	"context"
	"fmt"

	"clinica-dental-backend/internal/domain/entity"
	domainRepo "clinica-dental-backend/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// referenceQuery is one clinical table/column pair that can point at a profile.
type referenceQuery struct {
	category string
	model    interface{}
	column   string
}

// Every status counts, cancelled appointments included: the foreign key
// does not care about status.
var referenceQueries = map[entity.ProfileKind][]referenceQuery{
	entity.ProfileKindPatient: {
		{category: "appointment(s) as patient", model: &entity.Appointment{}, column: "patient_id"},
		{category: "treatment plan(s) as patient", model: &entity.TreatmentPlan{}, column: "patient_id"},
		{category: "prescription(s) as patient", model: &entity.Prescription{}, column: "patient_id"},
	},
	entity.ProfileKindDentist: {
		{category: "appointment(s) as dentist", model: &entity.Appointment{}, column: "dentist_id"},
		{category: "treatment plan(s) as dentist", model: &entity.TreatmentPlan{}, column: "dentist_id"},
		{category: "prescription(s) as dentist", model: &entity.Prescription{}, column: "dentist_id"},
	},
	entity.ProfileKindReceptionist: {
		{category: "appointment(s) as receptionist", model: &entity.Appointment{}, column: "receptionist_id"},
	},
}

type clinicalReferenceRepository struct{}

func NewClinicalReferenceRepository() domainRepo.ClinicalReferenceRepository {
	return &clinicalReferenceRepository{}
}

func (r *clinicalReferenceRepository) CountReferences(ctx context.Context, db *gorm.DB, kind entity.ProfileKind, userID uuid.UUID) (entity.ClinicalReferences, error) {
	queries, ok := referenceQueries[kind]
	if !ok {
		return nil, fmt.Errorf("unknown profile kind %q", kind)
	}

	var refs entity.ClinicalReferences
	for _, q := range queries {
		var count int64
		err := db.WithContext(ctx).Model(q.model).Where(q.column+" = ?", userID).Count(&count).Error
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", q.category, err)
		}
		if count > 0 {
			refs = append(refs, entity.ReferenceCount{Category: q.category, Count: count})
		}
	}
	return refs, nil
}
