package entity

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ProfileKind identifies one of the role-specific profile tables.
type ProfileKind string

const (
	ProfileKindPatient      ProfileKind = "patient"
	ProfileKindDentist      ProfileKind = "dentist"
	ProfileKindReceptionist ProfileKind = "receptionist"
)

// ProfileKinds lists every profile variant in a stable order.
var ProfileKinds = []ProfileKind{
	ProfileKindPatient,
	ProfileKindDentist,
	ProfileKindReceptionist,
}

// ProfileKindForRole maps a role name to the profile variant it owns.
// The administrator role has none, and neither has an unknown role.
func ProfileKindForRole(roleName string) (ProfileKind, bool) {
	switch strings.ToLower(strings.TrimSpace(roleName)) {
	case RolePatient:
		return ProfileKindPatient, true
	case RoleDentist:
		return ProfileKindDentist, true
	case RoleReceptionist:
		return ProfileKindReceptionist, true
	default:
		return "", false
	}
}

// IsKnownRole reports whether roleName is one of the canonical role names.
func IsKnownRole(roleName string) bool {
	switch strings.ToLower(strings.TrimSpace(roleName)) {
	case RoleAdministrator, RolePatient, RoleDentist, RoleReceptionist:
		return true
	}
	return false
}

// NewProfile returns an empty profile model of the given kind owned by userID.
func NewProfile(kind ProfileKind, userID uuid.UUID) (interface{}, error) {
	switch kind {
	case ProfileKindPatient:
		return &PatientProfile{UserID: userID}, nil
	case ProfileKindDentist:
		return &DentistProfile{UserID: userID}, nil
	case ProfileKindReceptionist:
		return &ReceptionistProfile{UserID: userID}, nil
	default:
		return nil, fmt.Errorf("unknown profile kind %q", kind)
	}
}

// ReferenceCount is the number of clinical records of one category that
// point at a profile.
type ReferenceCount struct {
	Category string
	Count    int64
}

func (r ReferenceCount) String() string {
	return fmt.Sprintf("%d %s", r.Count, r.Category)
}

// ClinicalReferences collects the non-zero reference counts of a profile.
type ClinicalReferences []ReferenceCount

func (refs ClinicalReferences) Total() int64 {
	var total int64
	for _, r := range refs {
		total += r.Count
	}
	return total
}

func (refs ClinicalReferences) String() string {
	parts := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Count > 0 {
			parts = append(parts, r.String())
		}
	}
	return strings.Join(parts, ", ")
}
