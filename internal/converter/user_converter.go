package converter

import (
	"clinica-dental-backend/internal/delivery/dto"
	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/service"
)

// UserToResponse converts a User entity to UserResponse DTO.
// Profiles are included when they are loaded.
func UserToResponse(user *entity.User) *dto.UserResponse {
	if user == nil {
		return nil
	}

	response := &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role.RoleName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if p := user.PatientProfile; p != nil {
		response.PatientProfile = &dto.PatientProfileResponse{
			UserID:           p.UserID,
			PhoneNumber:      p.PhoneNumber,
			Gender:           p.Gender,
			Address:          p.Address,
			EmergencyContact: p.EmergencyContact,
		}
		if p.DateOfBirth != nil {
			response.PatientProfile.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
		}
	}

	if p := user.DentistProfile; p != nil {
		response.DentistProfile = &dto.DentistProfileResponse{
			UserID:    p.UserID,
			Specialty: p.Specialty,
			Biography: p.Biography,
		}
		if p.LicenseNumber != nil {
			response.DentistProfile.LicenseNumber = *p.LicenseNumber
		}
	}

	if p := user.ReceptionistProfile; p != nil {
		response.ReceptionistProfile = &dto.ReceptionistProfileResponse{
			UserID:      p.UserID,
			PhoneNumber: p.PhoneNumber,
			Shift:       p.Shift,
		}
	}

	return response
}

// UsersToResponses converts a slice of User entities to UserResponse DTOs
func UsersToResponses(users []entity.User) []dto.UserResponse {
	responses := make([]dto.UserResponse, len(users))
	for i := range users {
		responses[i] = *UserToResponse(&users[i])
	}
	return responses
}

// ReconcileResultToResponse converts a reconciliation result for API output
func ReconcileResultToResponse(result *service.ReconcileResult) *dto.ReconciliationResponse {
	if result == nil {
		return nil
	}

	response := &dto.ReconciliationResponse{
		Outcome:    string(result.Outcome),
		Created:    kindsToStrings(result.Created),
		Deleted:    kindsToStrings(result.Deleted),
		Profiles:   kindsToStrings(result.Profiles),
		Consistent: result.Consistent,
	}
	if len(result.Blocking) > 0 {
		response.Blocking = make(map[string]string, len(result.Blocking))
		for kind, refs := range result.Blocking {
			response.Blocking[string(kind)] = refs.String()
		}
	}
	for _, err := range result.Failures {
		response.Warnings = append(response.Warnings, err.Error())
	}
	return response
}

// RepairReportToResponse converts a repair sweep report
func RepairReportToResponse(report *service.RepairReport) *dto.RepairReportResponse {
	if report == nil {
		return nil
	}
	return &dto.RepairReportResponse{
		Scanned:       report.Scanned,
		Processed:     report.Processed,
		Corrected:     report.Corrected,
		StillDegraded: report.StillDegraded,
		Failed:        report.Failed,
	}
}

func kindsToStrings(kinds []entity.ProfileKind) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, kind := range kinds {
		out[i] = string(kind)
	}
	return out
}
