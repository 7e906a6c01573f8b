package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"health-record-vault/internal/domain/entity"
	domainRepo "health-record-vault/internal/domain/repository"
)

// ErrAuditUnavailable is returned by AuditLogStore while Fail is set.
var ErrAuditUnavailable = errors.New("audit store unavailable")

type AuditLogStore struct {
	mu     sync.Mutex
	logs   []entity.AuditLog
	nextID int64

	Fail bool
}

var _ domainRepo.AuditLogRepository = (*AuditLogStore)(nil)

func NewAuditLogStore() *AuditLogStore {
	return &AuditLogStore{}
}

func (s *AuditLogStore) Create(ctx context.Context, log *entity.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrAuditUnavailable
	}
	s.nextID++
	log.ID = s.nextID
	log.CreatedAt = time.Now()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *AuditLogStore) FindByEntity(ctx context.Context, entityName, entityID string) ([]entity.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.AuditLog, 0)
	for _, l := range s.logs {
		if l.Entity == entityName && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

// Actions lists every recorded action in insertion order.
func (s *AuditLogStore) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.logs))
	for _, l := range s.logs {
		out = append(out, l.Action)
	}
	return out
}
