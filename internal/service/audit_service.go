package service

import (
	"context"

	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditService records who did what. Writes are best effort: a failed write
// is logged and never reaches the caller.
type AuditService interface {
	LogCreate(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, newValue interface{})
	LogUpdate(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, oldValue, newValue interface{})
	LogEvent(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, details entity.JSON)
	Trail(ctx context.Context, entityName, entityID string) ([]entity.AuditLog, error)
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, newValue interface{}) {
	s.write(ctx, actor, action, entityName, entityID, entity.JSON{
		"old_value": nil,
		"new_value": newValue,
	})
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, oldValue, newValue interface{}) {
	s.write(ctx, actor, action, entityName, entityID, entity.JSON{
		"old_value": oldValue,
		"new_value": newValue,
	})
}

// LogEvent logs an action that has no before/after state, such as a login.
func (s *auditService) LogEvent(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, details entity.JSON) {
	s.write(ctx, actor, action, entityName, entityID, details)
}

func (s *auditService) Trail(ctx context.Context, entityName, entityID string) ([]entity.AuditLog, error) {
	logs, err := s.auditRepo.FindByEntity(ctx, entityName, entityID)
	if err != nil {
		s.log.Warnf("Failed to load audit trail for %s/%s: %+v", entityName, entityID, err)
		return nil, err
	}
	return logs, nil
}

func (s *auditService) write(ctx context.Context, actor *uuid.UUID, action, entityName, entityID string, metadata entity.JSON) {
	auditLog := &entity.AuditLog{
		UserID:   actor,
		Action:   action,
		Entity:   entityName,
		EntityID: entityID,
		Metadata: metadata,
	}

	if err := s.auditRepo.Create(ctx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log %s for %s/%s: %+v", action, entityName, entityID, err)
	}
}
