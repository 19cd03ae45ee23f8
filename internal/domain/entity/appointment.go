package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

// Appointment links a patient to a dentist, optionally booked by a receptionist.
// Profile foreign keys are ON DELETE RESTRICT.
type Appointment struct {
	ID             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	DentistID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"dentist_id"`
	ReceptionistID *uuid.UUID        `gorm:"type:uuid;index" json:"receptionist_id,omitempty"`
	ScheduledAt    time.Time         `gorm:"not null;index" json:"scheduled_at"`
	Status         AppointmentStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Reason         string            `gorm:"type:text" json:"reason,omitempty"`
	CreatedAt      time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsCancelled checks if appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}
