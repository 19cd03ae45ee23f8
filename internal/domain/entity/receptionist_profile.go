package entity

import "github.com/google/uuid"

// ReceptionistProfile represents front-desk staff profile data
type ReceptionistProfile struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	PhoneNumber string    `gorm:"type:varchar(20)" json:"phone_number,omitempty"`
	Shift       string    `gorm:"type:varchar(50)" json:"shift,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ReceptionistProfile) TableName() string {
	return "receptionist_profiles"
}
