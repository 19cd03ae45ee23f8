package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TreatmentPlanStatus string

const (
	TreatmentPlanStatusDraft     TreatmentPlanStatus = "draft"
	TreatmentPlanStatusActive    TreatmentPlanStatus = "active"
	TreatmentPlanStatusCompleted TreatmentPlanStatus = "completed"
)

type TreatmentPlan struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"patient_id"`
	DentistID     uuid.UUID           `gorm:"type:uuid;not null;index" json:"dentist_id"`
	Title         string              `gorm:"type:varchar(255);not null" json:"title"`
	Description   string              `gorm:"type:text" json:"description,omitempty"`
	EstimatedCost decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"estimated_cost"`
	Status        TreatmentPlanStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TreatmentPlan) TableName() string {
	return "treatment_plans"
}
