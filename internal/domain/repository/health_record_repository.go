package repository

import (
	"context"

	"health-record-vault/internal/domain/entity"

	"github.com/google/uuid"
)

// LedgerMutation computes the next sharing ledger from the current one.
type LedgerMutation func(current []entity.SharedAccess) ([]entity.SharedAccess, error)

// HealthRecordRepository finders return nil, nil when no row matches.
type HealthRecordRepository interface {
	Create(ctx context.Context, record *entity.HealthRecord) error
	FindByID(ctx context.Context, id int64) (*entity.HealthRecord, error)
	FindByPatientUUID(ctx context.Context, patientUUID uuid.UUID, filter *entity.RecordFilter) ([]entity.HealthRecord, error)
	FindByFacility(ctx context.Context, facility string, filter *entity.RecordFilter) ([]entity.HealthRecord, error)
	// FindSharedWith returns candidates reachable by username through an
	// explicit view grant or an emergency contact entry, newest first.
	FindSharedWith(ctx context.Context, username string, filter *entity.RecordFilter) ([]entity.HealthRecord, error)
	// UpdateSharing applies mutate to the ledger as one atomic
	// read-modify-write and returns the updated record.
	UpdateSharing(ctx context.Context, id int64, mutate LedgerMutation) (*entity.HealthRecord, error)
	UpdateEmergencyAccess(ctx context.Context, id int64, accessible bool) (int64, error)
	// CompareAndSetStatus moves the record from one status to another and
	// reports affected rows: 0 means the status changed underneath.
	CompareAndSetStatus(ctx context.Context, id int64, from, to entity.RecordStatus) (int64, error)
}
