package repository

import (
	"context"

	"health-record-vault/internal/domain/entity"
	domainRepo "health-record-vault/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) domainRepo.AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, log *entity.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *auditLogRepository) FindByEntity(ctx context.Context, entityName, entityID string) ([]entity.AuditLog, error) {
	return withReadRetry(ctx, func() ([]entity.AuditLog, error) {
		var logs []entity.AuditLog
		err := r.db.WithContext(ctx).
			Where("entity = ? AND entity_id = ?", entityName, entityID).
			Order("created_at ASC, id ASC").
			Find(&logs).Error
		if err != nil {
			return nil, err
		}
		return logs, nil
	})
}
