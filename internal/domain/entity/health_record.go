package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrInvalidTransition  = errors.New("record status transition not allowed")
	ErrInvalidAction      = errors.New("unknown record status action")
	ErrInvalidAccessLevel = errors.New("access level must be view or emergency")
)

// RecordStatus is the review state of a health record
type RecordStatus string

const (
	RecordStatusPending  RecordStatus = "pending"
	RecordStatusAccepted RecordStatus = "accepted"
	RecordStatusRejected RecordStatus = "rejected"
)

// RecordAction is a patient decision on a pending record
type RecordAction string

const (
	RecordActionAccept RecordAction = "accept"
	RecordActionReject RecordAction = "reject"
)

// ParseRecordAction validates an action name coming from a caller.
func ParseRecordAction(s string) (RecordAction, error) {
	switch RecordAction(s) {
	case RecordActionAccept, RecordActionReject:
		return RecordAction(s), nil
	}
	return "", ErrInvalidAction
}

// InitialStatus returns the starting status for a new record. Records a
// patient writes for themself need no review; GP submissions do.
func InitialStatus(creatorIsOwner bool) RecordStatus {
	if creatorIsOwner {
		return RecordStatusAccepted
	}
	return RecordStatusPending
}

// IsTerminal reports whether no further transition is possible
func (s RecordStatus) IsTerminal() bool {
	return s == RecordStatusAccepted || s == RecordStatusRejected
}

// Transition applies action to s. Only pending records move.
func (s RecordStatus) Transition(action RecordAction) (RecordStatus, error) {
	if s != RecordStatusPending {
		return s, ErrInvalidTransition
	}
	switch action {
	case RecordActionAccept:
		return RecordStatusAccepted, nil
	case RecordActionReject:
		return RecordStatusRejected, nil
	}
	return s, ErrInvalidAction
}

// ShareAccessLevel is the level stored in a sharing ledger entry
type ShareAccessLevel string

const (
	ShareAccessView      ShareAccessLevel = "view"
	ShareAccessEmergency ShareAccessLevel = "emergency"
)

// ParseShareAccessLevel validates a ledger access level.
func ParseShareAccessLevel(s string) (ShareAccessLevel, error) {
	switch ShareAccessLevel(s) {
	case ShareAccessView, ShareAccessEmergency:
		return ShareAccessLevel(s), nil
	}
	return "", ErrInvalidAccessLevel
}

// SharedAccess is one entry of a record's sharing ledger
type SharedAccess struct {
	Username        string           `json:"username"`
	AccessLevel     ShareAccessLevel `json:"access_level"`
	AccessGrantedAt time.Time        `json:"access_granted_at"`
}

// GrantShare replaces any entry for username with a fresh one appended at
// the end of the ledger. The input slice is not modified.
func GrantShare(ledger []SharedAccess, username string, level ShareAccessLevel, at time.Time) []SharedAccess {
	next := RevokeShare(ledger, username)
	return append(next, SharedAccess{
		Username:        username,
		AccessLevel:     level,
		AccessGrantedAt: at,
	})
}

// RevokeShare drops the entry for username. Absent entries are ignored.
func RevokeShare(ledger []SharedAccess, username string) []SharedAccess {
	next := make([]SharedAccess, 0, len(ledger)+1)
	for _, s := range ledger {
		if s.Username != username {
			next = append(next, s)
		}
	}
	return next
}

// RecordContent is the structured body of a health record
type RecordContent struct {
	Notes        string `json:"notes"`
	Diagnosis    string `json:"diagnosis,omitempty"`
	Treatment    string `json:"treatment,omitempty"`
	PrivateNotes string `json:"private_notes,omitempty"`
}

// HealthRecord is a medical record owned by the patient in PatientUUID.
// Title, date, type, content and facility are fixed after creation.
type HealthRecord struct {
	ID                    int64                             `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientUUID           uuid.UUID                         `gorm:"column:patient_uuid;type:uuid;not null;index" json:"patient_uuid"`
	CreatedBy             uuid.UUID                         `gorm:"column:created_by;type:uuid;not null" json:"created_by"`
	Title                 string                            `gorm:"type:varchar(255);not null" json:"title"`
	Date                  time.Time                         `gorm:"type:timestamptz;not null;index" json:"date"`
	RecordType            string                            `gorm:"type:varchar(100);not null;index" json:"record_type"`
	Facility              string                            `gorm:"type:varchar(255);not null;index" json:"facility"`
	Content               datatypes.JSONType[RecordContent] `gorm:"type:jsonb;not null" json:"content"`
	Status                RecordStatus                      `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	IsEmergencyAccessible bool                              `gorm:"not null;default:false" json:"is_emergency_accessible"`
	SharedWith            datatypes.JSONSlice[SharedAccess] `gorm:"type:jsonb;not null;default:'[]'" json:"shared_with"`
	Signature             *string                           `gorm:"type:text" json:"signature,omitempty"`
	VerifiedAt            *time.Time                        `json:"verified_at,omitempty"`
	VerifiedBy            *string                           `gorm:"type:varchar(255)" json:"verified_by,omitempty"`
	CreatedAt             time.Time                         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time                         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (HealthRecord) TableName() string {
	return "health_records"
}

// IsPending checks if record still awaits the patient's decision
func (r *HealthRecord) IsPending() bool {
	return r.Status == RecordStatusPending
}

// IsSigned checks if an issuer signature is attached
func (r *HealthRecord) IsSigned() bool {
	return r.Signature != nil && *r.Signature != ""
}

// ShareFor returns the ledger entry for username, if any.
func (r *HealthRecord) ShareFor(username string) (SharedAccess, bool) {
	for _, s := range r.SharedWith {
		if s.Username == username {
			return s, true
		}
	}
	return SharedAccess{}, false
}

// Grantees returns a copy of the ledger in grant order.
func (r *HealthRecord) Grantees() []SharedAccess {
	out := make([]SharedAccess, len(r.SharedWith))
	copy(out, r.SharedWith)
	return out
}

// RecordFilter narrows record listings. Zero values mean no constraint.
type RecordFilter struct {
	Search     string // matches title or notes (ILIKE)
	RecordType string
	From       *time.Time
	To         *time.Time
}
