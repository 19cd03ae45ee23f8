package entity

import "github.com/google/uuid"

// DentistProfile represents dentist-specific profile data.
// LicenseNumber is nullable so an empty profile can be created on role change.
type DentistProfile struct {
	UserID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	LicenseNumber *string   `gorm:"type:varchar(50);uniqueIndex" json:"license_number,omitempty"`
	Specialty     string    `gorm:"type:varchar(100);index" json:"specialty,omitempty"`
	Biography     string    `gorm:"type:text" json:"biography,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (DentistProfile) TableName() string {
	return "dentist_profiles"
}
