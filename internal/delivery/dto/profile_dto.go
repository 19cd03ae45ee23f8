package dto

import "github.com/google/uuid"

// Profile details accepted when provisioning a user directly

type PatientDetails struct {
	PhoneNumber      string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	DateOfBirth      string `json:"date_of_birth" validate:"omitempty"` // Format: YYYY-MM-DD
	Gender           string `json:"gender" validate:"omitempty,oneof=M F"`
	Address          string `json:"address" validate:"omitempty"`
	EmergencyContact string `json:"emergency_contact" validate:"omitempty,max=255"`
}

type DentistDetails struct {
	LicenseNumber string `json:"license_number" validate:"required,max=50"`
	Specialty     string `json:"specialty" validate:"required,max=100"`
	Biography     string `json:"biography" validate:"omitempty"`
}

type ReceptionistDetails struct {
	PhoneNumber string `json:"phone_number" validate:"omitempty,min=10,max=20"`
	Shift       string `json:"shift" validate:"omitempty,max=50"`
}

// Response DTOs

type PatientProfileResponse struct {
	UserID           uuid.UUID `json:"user_id"`
	PhoneNumber      string    `json:"phone_number,omitempty"`
	DateOfBirth      string    `json:"date_of_birth,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	Address          string    `json:"address,omitempty"`
	EmergencyContact string    `json:"emergency_contact,omitempty"`
}

type DentistProfileResponse struct {
	UserID        uuid.UUID `json:"user_id"`
	LicenseNumber string    `json:"license_number,omitempty"`
	Specialty     string    `json:"specialty,omitempty"`
	Biography     string    `json:"biography,omitempty"`
}

type ReceptionistProfileResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Shift       string    `json:"shift,omitempty"`
}

// ReconciliationResponse reports what happened to the profiles after a user write
type ReconciliationResponse struct {
	Outcome    string            `json:"outcome"`
	Created    []string          `json:"created,omitempty"`
	Deleted    []string          `json:"deleted,omitempty"`
	Blocking   map[string]string `json:"blocking,omitempty"`
	Profiles   []string          `json:"profiles,omitempty"`
	Consistent bool              `json:"consistent"`
	Warnings   []string          `json:"warnings,omitempty"`
}

type RepairReportResponse struct {
	Scanned       int         `json:"scanned"`
	Processed     int         `json:"processed"`
	Corrected     int         `json:"corrected"`
	StillDegraded []uuid.UUID `json:"still_degraded"`
	Failed        []uuid.UUID `json:"failed"`
}
