package service_test

import (
	"context"
	"testing"

	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/repository/inmemory"
	"health-record-vault/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditServiceWritesTrail(t *testing.T) {
	ctx := context.Background()
	store := inmemory.NewAuditLogStore()
	audit := service.NewAuditService(quietLogger(), store)
	actor := uuid.New()

	audit.LogCreate(ctx, &actor, entity.AuditActionRecordCreate, entity.AuditEntityRecord, "7", entity.JSON{"status": "pending"})
	audit.LogUpdate(ctx, &actor, entity.AuditActionRecordAccept, entity.AuditEntityRecord, "7", "pending", "accepted")
	audit.LogEvent(ctx, &actor, entity.AuditActionUserLogin, entity.AuditEntityUser, actor.String(), nil)

	trail, err := audit.Trail(ctx, entity.AuditEntityRecord, "7")
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, entity.AuditActionRecordCreate, trail[0].Action)
	assert.Equal(t, "accepted", trail[1].Metadata["new_value"])
	assert.Equal(t, &actor, trail[1].UserID)
}

func TestAuditServiceLogsFailedWrites(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	store := inmemory.NewAuditLogStore()
	store.Fail = true
	audit := service.NewAuditService(log, store)

	assert.NotPanics(t, func() {
		audit.LogEvent(context.Background(), nil, entity.AuditActionUserLogout, entity.AuditEntityUser, "u1", nil)
	})

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Message, entity.AuditActionUserLogout)
	assert.Empty(t, store.Actions())
}
