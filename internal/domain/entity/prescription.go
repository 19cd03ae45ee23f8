package entity

import (
	"time"

	"github.com/google/uuid"
)

type Prescription struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID    uuid.UUID `gorm:"type:uuid;not null;index" json:"patient_id"`
	DentistID    uuid.UUID `gorm:"type:uuid;not null;index" json:"dentist_id"`
	Medication   string    `gorm:"type:varchar(255);not null" json:"medication"`
	Dosage       string    `gorm:"type:varchar(255)" json:"dosage,omitempty"`
	Instructions string    `gorm:"type:text" json:"instructions,omitempty"`
	IssuedAt     time.Time `gorm:"not null" json:"issued_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}
