package entity

import (
	"time"

	"github.com/google/uuid"
)

// User represents the centralized authentication table
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RoleID    int       `gorm:"not null;index" json:"role_id"`
	Email     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	FullName  string    `gorm:"type:varchar(255);not null" json:"full_name"`
	IsActive  *bool     `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role                Role                 `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	PatientProfile      *PatientProfile      `gorm:"foreignKey:UserID" json:"patient_profile,omitempty"`
	DentistProfile      *DentistProfile      `gorm:"foreignKey:UserID" json:"dentist_profile,omitempty"`
	ReceptionistProfile *ReceptionistProfile `gorm:"foreignKey:UserID" json:"receptionist_profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// ProfileKinds returns the profile variants loaded on the user.
// Profiles must be preloaded for the result to be meaningful.
func (u *User) ProfileKinds() []ProfileKind {
	var kinds []ProfileKind
	if u.PatientProfile != nil {
		kinds = append(kinds, ProfileKindPatient)
	}
	if u.DentistProfile != nil {
		kinds = append(kinds, ProfileKindDentist)
	}
	if u.ReceptionistProfile != nil {
		kinds = append(kinds, ProfileKindReceptionist)
	}
	return kinds
}

// HasMatchingProfile reports whether the loaded profiles are exactly the one
// required by roleName (none for administrator).
func (u *User) HasMatchingProfile(roleName string) bool {
	kinds := u.ProfileKinds()
	expected, ok := ProfileKindForRole(roleName)
	if !ok {
		return len(kinds) == 0
	}
	return len(kinds) == 1 && kinds[0] == expected
}
