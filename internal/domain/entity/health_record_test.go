package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, RecordStatusAccepted, InitialStatus(true))
	assert.Equal(t, RecordStatusPending, InitialStatus(false))
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    RecordStatus
		action  RecordAction
		want    RecordStatus
		wantErr error
	}{
		{RecordStatusPending, RecordActionAccept, RecordStatusAccepted, nil},
		{RecordStatusPending, RecordActionReject, RecordStatusRejected, nil},
		{RecordStatusAccepted, RecordActionReject, RecordStatusAccepted, ErrInvalidTransition},
		{RecordStatusAccepted, RecordActionAccept, RecordStatusAccepted, ErrInvalidTransition},
		{RecordStatusRejected, RecordActionAccept, RecordStatusRejected, ErrInvalidTransition},
		{RecordStatusPending, RecordAction("archive"), RecordStatusPending, ErrInvalidAction},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.action), func(t *testing.T) {
			got, err := tt.from.Transition(tt.action)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.True(t, got.IsTerminal())
		})
	}
}

func TestParsers(t *testing.T) {
	action, err := ParseRecordAction("reject")
	require.NoError(t, err)
	assert.Equal(t, RecordActionReject, action)

	_, err = ParseRecordAction("Reject")
	assert.ErrorIs(t, err, ErrInvalidAction)

	level, err := ParseShareAccessLevel("emergency")
	require.NoError(t, err)
	assert.Equal(t, ShareAccessEmergency, level)

	_, err = ParseShareAccessLevel("owner")
	assert.ErrorIs(t, err, ErrInvalidAccessLevel)
}

func TestGrantShareReplacesExistingEntry(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	ledger := GrantShare(nil, "owner", ShareAccessView, t0)
	ledger = GrantShare(ledger, "friend", ShareAccessView, t0)
	ledger = GrantShare(ledger, "gp", ShareAccessView, t0)

	before := append([]SharedAccess{}, ledger...)
	next := GrantShare(ledger, "friend", ShareAccessEmergency, t1)

	assert.Equal(t, before, ledger, "input untouched")
	require.Len(t, next, 3)
	assert.Equal(t, SharedAccess{Username: "friend", AccessLevel: ShareAccessEmergency, AccessGrantedAt: t1}, next[2])
	assert.Equal(t, "gp", next[1].Username)
}

func TestRevokeShare(t *testing.T) {
	ledger := GrantShare(nil, "owner", ShareAccessView, time.Now())
	ledger = GrantShare(ledger, "friend", ShareAccessView, time.Now())

	assert.Len(t, RevokeShare(ledger, "friend"), 1)
	assert.Len(t, RevokeShare(ledger, "nobody"), 2)
	assert.Empty(t, RevokeShare(nil, "friend"))
}

func TestRecordHelpers(t *testing.T) {
	sig := "c2ln"
	record := &HealthRecord{
		Status:     RecordStatusPending,
		SharedWith: GrantShare(nil, "owner", ShareAccessView, time.Now()),
	}
	assert.True(t, record.IsPending())
	assert.False(t, record.IsSigned())

	record.Signature = &sig
	assert.True(t, record.IsSigned())

	share, ok := record.ShareFor("owner")
	require.True(t, ok)
	assert.Equal(t, ShareAccessView, share.AccessLevel)

	_, ok = record.ShareFor("friend")
	assert.False(t, ok)

	grantees := record.Grantees()
	grantees[0].Username = "changed"
	assert.Equal(t, "owner", record.SharedWith[0].Username)
}
