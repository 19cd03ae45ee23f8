package entity_test

import (
	"testing"

	"clinica-dental-backend/internal/domain/entity"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
)

func TestProfileKindForRole(t *testing.T) {
	tests := []struct {
		role     string
		kind     entity.ProfileKind
		hasKind  bool
		known bool
	}{
		{role: "patient", kind: entity.ProfileKindPatient, hasKind: true, known: true},
		{role: "Dentist", kind: entity.ProfileKindDentist, hasKind: true, known: true},
		{role: " receptionist ", kind: entity.ProfileKindReceptionist, hasKind: true, known: true},
		{role: "administrator", hasKind: false, known: true},
		{role: "hygienist", hasKind: false, known: false},
		{role: "", hasKind: false, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			c := qt.New(t)

			kind, ok := entity.ProfileKindForRole(tt.role)
			c.Assert(ok, qt.Equals, tt.hasKind)
			c.Assert(kind, qt.Equals, tt.kind)
			c.Assert(entity.IsKnownRole(tt.role), qt.Equals, tt.known)
		})
	}
}

func TestNewProfile(t *testing.T) {
	c := qt.New(t)
	userID := uuid.New()

	model, err := entity.NewProfile(entity.ProfileKindDentist, userID)
	c.Assert(err, qt.IsNil)
	c.Assert(model, qt.DeepEquals, &entity.DentistProfile{UserID: userID})

	_, err = entity.NewProfile("hygienist", userID)
	c.Assert(err, qt.ErrorMatches, `unknown profile kind "hygienist"`)
}

func TestUser_HasMatchingProfile(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name     string
		user     entity.User
		role     string
		expected bool
	}{
		{
			name:     "patient with patient profile",
			user:     entity.User{PatientProfile: &entity.PatientProfile{UserID: id}},
			role:     entity.RolePatient,
			expected: true,
		},
		{
			name:     "dentist without profile",
			user:     entity.User{},
			role:     entity.RoleDentist,
			expected: false,
		},
		{
			name: "dentist with extra patient profile",
			user: entity.User{
				PatientProfile: &entity.PatientProfile{UserID: id},
				DentistProfile: &entity.DentistProfile{UserID: id},
			},
			role:     entity.RoleDentist,
			expected: false,
		},
		{
			name:     "administrator without profile",
			user:     entity.User{},
			role:     entity.RoleAdministrator,
			expected: true,
		},
		{
			name:     "administrator with receptionist profile",
			user:     entity.User{ReceptionistProfile: &entity.ReceptionistProfile{UserID: id}},
			role:     entity.RoleAdministrator,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			c.Assert(tt.user.HasMatchingProfile(tt.role), qt.Equals, tt.expected)
		})
	}
}

func TestClinicalReferences(t *testing.T) {
	c := qt.New(t)

	refs := entity.ClinicalReferences{
		{Category: "appointment(s) as patient", Count: 3},
		{Category: "treatment plan(s) as patient", Count: 0},
		{Category: "prescription(s) as patient", Count: 1},
	}

	c.Assert(refs.Total(), qt.Equals, int64(4))
	c.Assert(refs.String(), qt.Equals, "3 appointment(s) as patient, 1 prescription(s) as patient")
	c.Assert(entity.ClinicalReferences(nil).Total(), qt.Equals, int64(0))
}

func TestJSON_ValueAndScan(t *testing.T) {
	c := qt.New(t)

	value, err := entity.JSON{"outcome": "degraded"}.Value()
	c.Assert(err, qt.IsNil)

	var scanned entity.JSON
	c.Assert(scanned.Scan(value), qt.IsNil)
	c.Assert(scanned["outcome"], qt.Equals, "degraded")

	empty, err := entity.JSON{}.Value()
	c.Assert(err, qt.IsNil)
	c.Assert(empty, qt.IsNil)

	c.Assert(scanned.Scan(42), qt.ErrorMatches, "unsupported jsonb value of type int")
}
