package converter_test

import (
	"errors"
	"testing"
	"time"

	"clinica-dental-backend/internal/converter"
	"clinica-dental-backend/internal/domain/entity"
	"clinica-dental-backend/internal/service"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
)

func TestUserToResponse(t *testing.T) {
	c := qt.New(t)
	id := uuid.New()
	dob := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
	license := "DDS-001"

	resp := converter.UserToResponse(&entity.User{
		ID:             id,
		Email:          "ana@clinic.test",
		FullName:       "Ana",
		Role:           entity.Role{ID: entity.RoleIDDentist, RoleName: entity.RoleDentist},
		PatientProfile: &entity.PatientProfile{UserID: id, DateOfBirth: &dob},
		DentistProfile: &entity.DentistProfile{UserID: id, LicenseNumber: &license},
	})

	c.Assert(resp.Role, qt.Equals, entity.RoleDentist)
	c.Assert(resp.PatientProfile.DateOfBirth, qt.Equals, "1990-04-02")
	c.Assert(resp.DentistProfile.LicenseNumber, qt.Equals, license)
	c.Assert(resp.ReceptionistProfile, qt.IsNil)
}

func TestReconcileResultToResponse(t *testing.T) {
	c := qt.New(t)

	resp := converter.ReconcileResultToResponse(&service.ReconcileResult{
		Outcome: service.OutcomeDegraded,
		Created: []entity.ProfileKind{entity.ProfileKindDentist},
		Blocking: map[entity.ProfileKind]entity.ClinicalReferences{
			entity.ProfileKindPatient: {{Category: "appointment(s) as patient", Count: 3}},
		},
		Profiles: []entity.ProfileKind{entity.ProfileKindPatient, entity.ProfileKindDentist},
		Failures: []error{errors.New("count failed")},
	})

	c.Assert(resp.Outcome, qt.Equals, "degraded")
	c.Assert(resp.Created, qt.DeepEquals, []string{"dentist"})
	c.Assert(resp.Deleted, qt.IsNil)
	c.Assert(resp.Blocking, qt.DeepEquals, map[string]string{"patient": "3 appointment(s) as patient"})
	c.Assert(resp.Profiles, qt.DeepEquals, []string{"patient", "dentist"})
	c.Assert(resp.Warnings, qt.DeepEquals, []string{"count failed"})
	c.Assert(converter.ReconcileResultToResponse(nil), qt.IsNil)
}
