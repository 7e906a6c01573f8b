package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RegisterPatientRequest registers a patient; a patient code is assigned.
type RegisterPatientRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
}

// RegisterGPRequest registers a GP. FullName doubles as the facility name
// stamped on the records the GP issues.
type RegisterGPRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	FullName string `json:"full_name" validate:"required,min=2,max=255"`
}

// Response DTOs

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type EmergencyContactResponse struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	Relationship   string `json:"relationship"`
	Phone          string `json:"phone"`
	Email          string `json:"email,omitempty"`
	CanViewRecords bool   `json:"can_view_records"`
}

type UserResponse struct {
	ID                uuid.UUID                  `json:"id"`
	Username          string                     `json:"username"`
	FullName          string                     `json:"full_name"`
	Role              string                     `json:"role"`
	PatientCode       *string                    `json:"patient_code,omitempty"`
	BloodType         *string                    `json:"blood_type,omitempty"`
	Allergies         []string                   `json:"allergies"`
	EmergencyContacts []EmergencyContactResponse `json:"emergency_contacts"`
	GPUsername        *string                    `json:"gp_username,omitempty"`
	HasPublicKey      bool                       `json:"has_public_key"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}
