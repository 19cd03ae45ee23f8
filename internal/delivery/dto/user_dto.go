package dto

// Request DTOs

// CreateUserRequest provisions a staff or patient account. When the details
// block matching the role is present the profile is created from it,
// otherwise an empty profile is created for the role.
type CreateUserRequest struct {
	Email        string               `json:"email" validate:"required,email"`
	Password     string               `json:"password" validate:"required,min=6"`
	FullName     string               `json:"full_name" validate:"required,min=2"`
	Role         string               `json:"role" validate:"required,oneof=administrator patient dentist receptionist"`
	Patient      *PatientDetails      `json:"patient" validate:"omitempty"`
	Dentist      *DentistDetails      `json:"dentist" validate:"omitempty"`
	Receptionist *ReceptionistDetails `json:"receptionist" validate:"omitempty"`
}

type UpdateUserRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
	FullName string `json:"full_name" validate:"omitempty,min=2"`
	Role     string `json:"role" validate:"omitempty,oneof=administrator patient dentist receptionist"`
	IsActive *bool  `json:"is_active" validate:"omitempty"`
}

// Response DTOs

type UserWriteResponse struct {
	User           *UserResponse           `json:"user"`
	Reconciliation *ReconciliationResponse `json:"reconciliation,omitempty"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}
