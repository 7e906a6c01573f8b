package service

import (
	"context"
	"errors"
	"time"

	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/domain/repository"

	"github.com/sirupsen/logrus"
)

var ErrGranteeNotFound = errors.New("grantee not found")

// SharingLedger mutates a record's shared_with list. Both mutations return
// nil, nil when the record does not exist.
type SharingLedger interface {
	Grant(ctx context.Context, recordID int64, grantee string, level string) (*entity.HealthRecord, error)
	Revoke(ctx context.Context, recordID int64, grantee string) (*entity.HealthRecord, error)
	ListGrantees(record *entity.HealthRecord) []entity.SharedAccess
}

type sharingLedger struct {
	log        *logrus.Logger
	directory  IdentityDirectory
	recordRepo repository.HealthRecordRepository
	now        func() time.Time
}

func NewSharingLedger(log *logrus.Logger, directory IdentityDirectory, recordRepo repository.HealthRecordRepository) SharingLedger {
	return &sharingLedger{
		log:        log,
		directory:  directory,
		recordRepo: recordRepo,
		now:        time.Now,
	}
}

func (l *sharingLedger) Grant(ctx context.Context, recordID int64, grantee string, level string) (*entity.HealthRecord, error) {
	accessLevel, err := entity.ParseShareAccessLevel(level)
	if err != nil {
		return nil, err
	}

	if _, err := l.directory.ResolveByUsername(ctx, grantee); err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrGranteeNotFound
		}
		return nil, err
	}

	grantedAt := l.now().UTC()
	record, err := l.recordRepo.UpdateSharing(ctx, recordID, func(current []entity.SharedAccess) ([]entity.SharedAccess, error) {
		return entity.GrantShare(current, grantee, accessLevel, grantedAt), nil
	})
	if err != nil {
		l.log.Warnf("Failed to grant %s on record %d: %+v", grantee, recordID, err)
		return nil, err
	}
	return record, nil
}

func (l *sharingLedger) Revoke(ctx context.Context, recordID int64, grantee string) (*entity.HealthRecord, error) {
	record, err := l.recordRepo.UpdateSharing(ctx, recordID, func(current []entity.SharedAccess) ([]entity.SharedAccess, error) {
		return entity.RevokeShare(current, grantee), nil
	})
	if err != nil {
		l.log.Warnf("Failed to revoke %s on record %d: %+v", grantee, recordID, err)
		return nil, err
	}
	return record, nil
}

func (l *sharingLedger) ListGrantees(record *entity.HealthRecord) []entity.SharedAccess {
	if record == nil {
		return []entity.SharedAccess{}
	}
	return record.Grantees()
}
