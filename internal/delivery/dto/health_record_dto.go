package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateRecordRequest is a record draft. Patient is a UUID or a patient
// code and may be empty when a patient writes their own record. Date
// accepts RFC 3339 or YYYY-MM-DD.
type CreateRecordRequest struct {
	Patient      string `json:"patient" validate:"omitempty,max=64"`
	Title        string `json:"title" validate:"required,max=255"`
	Date         string `json:"date" validate:"required"`
	RecordType   string `json:"record_type" validate:"required,max=100"`
	Facility     string `json:"facility" validate:"omitempty,max=255"`
	Notes        string `json:"notes" validate:"required"`
	Diagnosis    string `json:"diagnosis"`
	Treatment    string `json:"treatment"`
	PrivateNotes string `json:"private_notes"`
	Signature    string `json:"signature"`
}

// RecordFilterRequest is read from the query string.
type RecordFilterRequest struct {
	Search     string
	RecordType string
	From       string
	To         string
}

type ShareRecordRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	AccessLevel string `json:"access_level" validate:"required"`
}

type EmergencyAccessRequest struct {
	Accessible *bool `json:"is_emergency_accessible" validate:"required"`
}

type VerifyRecordRequest struct {
	PublicKey string `json:"public_key"`
}

// Response DTOs

type RecordContentResponse struct {
	Notes        string `json:"notes"`
	Diagnosis    string `json:"diagnosis,omitempty"`
	Treatment    string `json:"treatment,omitempty"`
	PrivateNotes string `json:"private_notes,omitempty"`
}

type SharedAccessResponse struct {
	Username        string    `json:"username"`
	AccessLevel     string    `json:"access_level"`
	AccessGrantedAt time.Time `json:"access_granted_at"`
}

type HealthRecordResponse struct {
	ID                    int64                  `json:"id"`
	PatientUUID           uuid.UUID              `json:"patient_uuid"`
	CreatedBy             uuid.UUID              `json:"created_by"`
	Title                 string                 `json:"title"`
	Date                  time.Time              `json:"date"`
	RecordType            string                 `json:"record_type"`
	Facility              string                 `json:"facility"`
	Content               RecordContentResponse  `json:"content"`
	Status                string                 `json:"status"`
	IsEmergencyAccessible bool                   `json:"is_emergency_accessible"`
	SharedWith            []SharedAccessResponse `json:"shared_with,omitempty"`
	Signed                bool                   `json:"signed"`
	Signature             *string                `json:"signature,omitempty"`
	VerifiedAt            *time.Time             `json:"verified_at,omitempty"`
	VerifiedBy            *string                `json:"verified_by,omitempty"`
	AccessLevel           string                 `json:"access_level"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
}

type RecordListResponse struct {
	Records []HealthRecordResponse `json:"records"`
	Total   int                    `json:"total"`
}

type SharingResponse struct {
	RecordID   int64                  `json:"record_id"`
	SharedWith []SharedAccessResponse `json:"shared_with"`
}

type VerifyResponse struct {
	RecordID int64 `json:"record_id"`
	Verified bool  `json:"verified"`
}
