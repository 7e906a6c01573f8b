package dto

import "github.com/google/uuid"

type EmergencyContactRequest struct {
	Username       string `json:"username" validate:"required"`
	Name           string `json:"name" validate:"required,max=255"`
	Relationship   string `json:"relationship" validate:"max=100"`
	Phone          string `json:"phone" validate:"max=30"`
	Email          string `json:"email" validate:"omitempty,email"`
	CanViewRecords bool   `json:"can_view_records"`
}

// UpdateProfileRequest is a patch: nil fields are left unchanged.
type UpdateProfileRequest struct {
	EmergencyContacts *[]EmergencyContactRequest `json:"emergency_contacts" validate:"omitempty,max=10,dive"`
	BloodType         *string                    `json:"blood_type" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies         *[]string                  `json:"allergies" validate:"omitempty,max=50,dive,required,max=100"`
	GPUsername        *string                    `json:"gp_username" validate:"omitempty,max=100"`
}

// KeyPairResponse carries the private key exactly once; it is not stored.
type KeyPairResponse struct {
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"private_key"`
}

type PatientLookupRequest struct {
	PatientCode string `json:"patient_code" validate:"required,max=16"`
}

type PatientLookupResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	PatientCode string    `json:"patient_code"`
}
