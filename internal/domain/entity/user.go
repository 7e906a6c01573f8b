package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EmergencyContact is a user the patient designated for fallback access.
// Username must reference an existing account at write time.
type EmergencyContact struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	Relationship   string `json:"relationship"`
	Phone          string `json:"phone"`
	Email          string `json:"email,omitempty"`
	CanViewRecords bool   `json:"can_view_records"`
}

// User is an identity in the directory: either a patient or a GP.
type User struct {
	ID                int64                                 `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID              uuid.UUID                             `gorm:"column:uuid;type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	RoleID            int                                   `gorm:"not null;index" json:"role_id"`
	Username          string                                `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Password          string                                `gorm:"type:text;not null" json:"-"`
	FullName          string                                `gorm:"type:varchar(255);not null" json:"full_name"`
	PatientCode       *string                               `gorm:"type:varchar(16);uniqueIndex" json:"patient_code,omitempty"`
	EmergencyContacts datatypes.JSONSlice[EmergencyContact] `gorm:"type:jsonb;not null;default:'[]'" json:"emergency_contacts"`
	BloodType         *string                               `gorm:"type:varchar(8)" json:"blood_type,omitempty"`
	Allergies         datatypes.JSONSlice[string]           `gorm:"type:jsonb;not null;default:'[]'" json:"allergies"`
	PublicKey         *string                               `gorm:"type:text" json:"public_key,omitempty"`
	GPUsername        *string                               `gorm:"column:gp_username;type:varchar(100)" json:"gp_username,omitempty"`
	CreatedAt         time.Time                             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                             `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsGP checks if the identity belongs to a general practitioner
func (u *User) IsGP() bool {
	return u.RoleID == RoleIDGP
}

// IsPatient checks if the identity belongs to a patient
func (u *User) IsPatient() bool {
	return u.RoleID == RoleIDPatient
}

// RoleName returns the role name for the identity's role id.
func (u *User) RoleName() string {
	switch u.RoleID {
	case RoleIDGP:
		return RoleGP
	case RoleIDPatient:
		return RolePatient
	}
	return ""
}

// EmergencyContactFor returns the contact entry for username, if any.
func (u *User) EmergencyContactFor(username string) (EmergencyContact, bool) {
	for _, c := range u.EmergencyContacts {
		if c.Username == username {
			return c, true
		}
	}
	return EmergencyContact{}, false
}

// HasPublicKey reports whether a signing keypair was issued to the identity.
func (u *User) HasPublicKey() bool {
	return u.PublicKey != nil && *u.PublicKey != ""
}
