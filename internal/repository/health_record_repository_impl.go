package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"health-record-vault/internal/domain/entity"
	domainRepo "health-record-vault/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type healthRecordRepository struct {
	db *gorm.DB
}

func NewHealthRecordRepository(db *gorm.DB) domainRepo.HealthRecordRepository {
	return &healthRecordRepository{db: db}
}

func (r *healthRecordRepository) Create(ctx context.Context, record *entity.HealthRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *healthRecordRepository) FindByID(ctx context.Context, id int64) (*entity.HealthRecord, error) {
	return withReadRetry(ctx, func() (*entity.HealthRecord, error) {
		var record entity.HealthRecord
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
		return notFoundAsNil(&record, err)
	})
}

func (r *healthRecordRepository) FindByPatientUUID(ctx context.Context, patientUUID uuid.UUID, filter *entity.RecordFilter) ([]entity.HealthRecord, error) {
	return r.findAll(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("health_records.patient_uuid = ?", patientUUID)
	})
}

func (r *healthRecordRepository) FindByFacility(ctx context.Context, facility string, filter *entity.RecordFilter) ([]entity.HealthRecord, error) {
	return r.findAll(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("health_records.facility = ?", facility)
	})
}

// FindSharedWith uses JSONB containment rather than unnesting the ledger.
// The result is a candidate set; callers still run each row through the
// access evaluator.
func (r *healthRecordRepository) FindSharedWith(ctx context.Context, username string, filter *entity.RecordFilter) ([]entity.HealthRecord, error) {
	scope, err := r.sharedWithScope(username)
	if err != nil {
		return nil, err
	}
	return r.findAll(ctx, filter, scope)
}

func (r *healthRecordRepository) sharedWithScope(username string) (func(*gorm.DB) *gorm.DB, error) {
	shareProbe, err := json.Marshal([]map[string]interface{}{
		{"username": username, "access_level": entity.ShareAccessView},
	})
	if err != nil {
		return nil, err
	}
	contactProbe, err := json.Marshal([]map[string]interface{}{
		{"username": username, "can_view_records": true},
	})
	if err != nil {
		return nil, err
	}

	return func(q *gorm.DB) *gorm.DB {
		return q.Where(
			r.db.Where("health_records.shared_with @> ?::jsonb", string(shareProbe)).
				Or("health_records.is_emergency_accessible = ? AND health_records.patient_uuid IN (?)",
					true,
					r.db.Model(&entity.User{}).Select("uuid").Where("emergency_contacts @> ?::jsonb", string(contactProbe)),
				),
		)
	}, nil
}

func (r *healthRecordRepository) findAll(ctx context.Context, filter *entity.RecordFilter, scope func(*gorm.DB) *gorm.DB) ([]entity.HealthRecord, error) {
	return withReadRetry(ctx, func() ([]entity.HealthRecord, error) {
		var records []entity.HealthRecord
		query := applyRecordFilter(scope(r.db.WithContext(ctx).Model(&entity.HealthRecord{})), filter)

		err := query.Order("health_records.date DESC, health_records.id DESC").Find(&records).Error
		if err != nil {
			return nil, err
		}
		return records, nil
	})
}

func applyRecordFilter(query *gorm.DB, filter *entity.RecordFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("(health_records.title ILIKE ? OR health_records.content->>'notes' ILIKE ?)", pattern, pattern)
	}
	if filter.RecordType != "" {
		query = query.Where("health_records.record_type = ?", filter.RecordType)
	}
	if filter.From != nil {
		query = query.Where("health_records.date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("health_records.date <= ?", *filter.To)
	}
	return query
}

// UpdateSharing locks the row for the duration of the read-modify-write so
// concurrent grant/revoke calls on one record serialize instead of losing
// updates.
func (r *healthRecordRepository) UpdateSharing(ctx context.Context, id int64, mutate domainRepo.LedgerMutation) (*entity.HealthRecord, error) {
	var updated *entity.HealthRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entity.HealthRecord
		if err := lockRecord(tx, id, &record).Error; err != nil {
			return err
		}

		next, err := mutate(record.Grantees())
		if err != nil {
			return err
		}

		ledger := datatypes.NewJSONSlice(next)
		if err := writeLedger(tx, &record, ledger).Error; err != nil {
			return fmt.Errorf("write sharing ledger: %w", err)
		}

		record.SharedWith = ledger
		updated = &record
		return nil
	})
	if err != nil {
		return notFoundAsNil(updated, err)
	}
	return updated, nil
}

// lockRecord reads the row under SELECT ... FOR UPDATE.
func lockRecord(tx *gorm.DB, id int64, record *entity.HealthRecord) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(record)
}

func writeLedger(tx *gorm.DB, record *entity.HealthRecord, ledger datatypes.JSONSlice[entity.SharedAccess]) *gorm.DB {
	return tx.Model(record).Update("shared_with", ledger)
}

func (r *healthRecordRepository) UpdateEmergencyAccess(ctx context.Context, id int64, accessible bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.HealthRecord{}).
		Where("id = ?", id).
		Update("is_emergency_accessible", accessible)
	return result.RowsAffected, result.Error
}

// CompareAndSetStatus atomically moves status ONLY if it still equals from.
// Returns affected rows: 1 = moved, 0 = status changed concurrently.
func (r *healthRecordRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to entity.RecordStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.HealthRecord{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
