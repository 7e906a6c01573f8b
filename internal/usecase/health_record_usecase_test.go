package usecase_test

import (
	"context"
	"testing"

	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/service"
	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/integrity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGPRecordReviewedByOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.gp(t, "drsmith", "Riverside Practice")

	r1 := f.ownRecord(t, "patient", "Blood pressure diary")
	assert.Equal(t, string(entity.RecordStatusAccepted), r1.Status)
	assert.False(t, r1.IsEmergencyAccessible)

	r2 := f.gpRecord(t, "drsmith", p, "Consultation")
	assert.Equal(t, string(entity.RecordStatusPending), r2.Status)
	assert.Equal(t, "Riverside Practice", r2.Facility)

	got, err := f.records.GetRecord(ctx, "patient", r2.ID)
	require.NoError(t, err)
	assert.Equal(t, string(service.AccessOwner), got.AccessLevel)

	accepted, err := f.records.TransitionStatus(ctx, "patient", r2.ID, "accept")
	require.NoError(t, err)
	assert.Equal(t, string(entity.RecordStatusAccepted), accepted.Status)

	_, err = f.records.TransitionStatus(ctx, "patient", r2.ID, "reject")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)

	stored, err := f.store.FindByID(ctx, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordStatusAccepted, stored.Status)
}

func TestSharedRecordIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.patient(t, "friend")
	f.patient(t, "stranger")

	r1, err := f.records.CreateRecord(ctx, "patient", &dto.CreateRecordRequest{
		Title:        "Allergy test",
		Date:         "2024-01-10",
		RecordType:   "lab",
		Facility:     "City Lab",
		Notes:        "mild reaction",
		PrivateNotes: "do not tell my mother",
	})
	require.NoError(t, err)

	_, err = f.records.ShareRecord(ctx, "patient", r1.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
	require.NoError(t, err)

	got, err := f.records.GetRecord(ctx, "friend", r1.ID)
	require.NoError(t, err)
	assert.Equal(t, string(service.AccessShared), got.AccessLevel)
	assert.Empty(t, got.Content.PrivateNotes)
	assert.Nil(t, got.SharedWith)

	_, err = f.records.ShareRecord(ctx, "friend", r1.ID, &dto.ShareRecordRequest{Username: "stranger", AccessLevel: "view"})
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	_, err = f.records.GetRecord(ctx, "stranger", r1.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	owned, err := f.records.GetRecord(ctx, "patient", r1.ID)
	require.NoError(t, err)
	assert.Equal(t, "do not tell my mother", owned.Content.PrivateNotes)
	require.Len(t, owned.SharedWith, 2)
	assert.Equal(t, "patient", owned.SharedWith[0].Username)
	assert.Equal(t, "friend", owned.SharedWith[1].Username)
}

func TestWritesRequireOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.patient(t, "friend")
	f.gp(t, "drsmith", "Riverside Practice")

	record := f.gpRecord(t, "drsmith", p, "Consultation")
	_, err := f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
	require.NoError(t, err)
	_, err = f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "drsmith", AccessLevel: "view"})
	require.NoError(t, err)

	for _, requester := range []string{"friend", "drsmith", "nobody"} {
		t.Run(requester, func(t *testing.T) {
			_, err := f.records.ShareRecord(ctx, requester, record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
			assert.ErrorIs(t, err, service.ErrAccessDenied)

			_, err = f.records.RevokeShare(ctx, requester, record.ID, "friend")
			assert.ErrorIs(t, err, service.ErrAccessDenied)

			_, err = f.records.SetEmergencyAccessible(ctx, requester, record.ID, true)
			assert.ErrorIs(t, err, service.ErrAccessDenied)

			_, err = f.records.TransitionStatus(ctx, requester, record.ID, "accept")
			assert.ErrorIs(t, err, service.ErrAccessDenied)

			_, err = f.records.RecordAuditTrail(ctx, requester, record.ID)
			assert.ErrorIs(t, err, service.ErrAccessDenied)
		})
	}

	stored, err := f.store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordStatusPending, stored.Status)
	assert.False(t, stored.IsEmergencyAccessible)
	assert.Len(t, stored.SharedWith, 3)
}

func TestEmergencyContactAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.patient(t, "sister")
	f.patient(t, "neighbour")

	_, err := f.profiles.UpdateProfile(ctx, "patient", &dto.UpdateProfileRequest{
		EmergencyContacts: &[]dto.EmergencyContactRequest{
			{Username: "sister", Name: "Sister", CanViewRecords: true},
			{Username: "neighbour", Name: "Neighbour", CanViewRecords: false},
		},
	})
	require.NoError(t, err)

	record := f.ownRecord(t, "patient", "Epilepsy plan")

	_, err = f.records.GetRecord(ctx, "sister", record.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied, "record not yet emergency accessible")

	_, err = f.records.SetEmergencyAccessible(ctx, "patient", record.ID, true)
	require.NoError(t, err)

	got, err := f.records.GetRecord(ctx, "sister", record.ID)
	require.NoError(t, err)
	assert.Equal(t, string(service.AccessEmergency), got.AccessLevel)

	_, err = f.records.GetRecord(ctx, "neighbour", record.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied, "contact without can_view_records")

	shared, err := f.records.ListSharedRecords(ctx, "sister", nil)
	require.NoError(t, err)
	require.Equal(t, 1, shared.Total)
	assert.Equal(t, record.ID, shared.Records[0].ID)

	_, err = f.records.SetEmergencyAccessible(ctx, "patient", record.ID, false)
	require.NoError(t, err)
	_, err = f.records.GetRecord(ctx, "sister", record.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied)
}

func TestEmergencyLedgerEntryAloneGrantsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.patient(t, "friend")
	record := f.ownRecord(t, "patient", "Vaccination")

	sharing, err := f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "emergency"})
	require.NoError(t, err)
	require.Len(t, sharing.SharedWith, 2)
	assert.Equal(t, "emergency", sharing.SharedWith[1].AccessLevel)

	_, err = f.records.GetRecord(ctx, "friend", record.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied)
}

func TestShareAndRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.patient(t, "friend")
	record := f.ownRecord(t, "patient", "Physio")

	_, err := f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "ghost", AccessLevel: "view"})
	assert.ErrorIs(t, err, service.ErrGranteeNotFound)

	_, err = f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "edit"})
	assert.ErrorIs(t, err, entity.ErrInvalidAccessLevel)

	_, err = f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
	require.NoError(t, err)
	again, err := f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
	require.NoError(t, err)
	assert.Len(t, again.SharedWith, 2, "re-granting replaces the entry")

	revoked, err := f.records.RevokeShare(ctx, "patient", record.ID, "friend")
	require.NoError(t, err)
	require.Len(t, revoked.SharedWith, 1)
	assert.Equal(t, "patient", revoked.SharedWith[0].Username)

	_, err = f.records.RevokeShare(ctx, "patient", record.ID, "friend")
	require.NoError(t, err, "revoking an absent grantee is a no-op")

	_, err = f.records.GetRecord(ctx, "friend", record.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	_, err = f.records.ShareRecord(ctx, "patient", 999, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
	assert.ErrorIs(t, err, usecase.ErrRecordNotFound)
}

func TestRevokedShareFallsBackToEmergencyAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.patient(t, "sister")

	_, err := f.profiles.UpdateProfile(ctx, "patient", &dto.UpdateProfileRequest{
		EmergencyContacts: &[]dto.EmergencyContactRequest{
			{Username: "sister", Name: "Sister", CanViewRecords: true},
		},
	})
	require.NoError(t, err)

	record := f.ownRecord(t, "patient", "Allergy card")
	_, err = f.records.SetEmergencyAccessible(ctx, "patient", record.ID, true)
	require.NoError(t, err)
	_, err = f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "sister", AccessLevel: "view"})
	require.NoError(t, err)

	got, err := f.records.GetRecord(ctx, "sister", record.ID)
	require.NoError(t, err)
	assert.Equal(t, string(service.AccessShared), got.AccessLevel)

	_, err = f.records.RevokeShare(ctx, "patient", record.ID, "sister")
	require.NoError(t, err)

	got, err = f.records.GetRecord(ctx, "sister", record.ID)
	require.NoError(t, err, "emergency access survives the revoked grant")
	assert.Equal(t, string(service.AccessEmergency), got.AccessLevel)

	_, err = f.records.TransitionStatus(ctx, "sister", record.ID, "reject")
	assert.ErrorIs(t, err, service.ErrAccessDenied)
}

func TestGPListingMatchesSingleFetch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.gp(t, "drsmith", "Riverside Practice")
	f.gp(t, "drjones", "Hilltop Clinic")

	visible := f.gpRecord(t, "drsmith", p, "Shared consultation")
	hidden := f.gpRecord(t, "drsmith", p, "Private consultation")
	f.gpRecord(t, "drjones", p, "Other practice")

	_, err := f.records.ShareRecord(ctx, "patient", visible.ID, &dto.ShareRecordRequest{Username: "drsmith", AccessLevel: "view"})
	require.NoError(t, err)

	listing, err := f.records.ListRecords(ctx, "drsmith", nil)
	require.NoError(t, err)
	require.Equal(t, 1, listing.Total)
	assert.Equal(t, visible.ID, listing.Records[0].ID)

	for _, r := range listing.Records {
		_, err := f.records.GetRecord(ctx, "drsmith", r.ID)
		assert.NoError(t, err)
	}
	_, err = f.records.GetRecord(ctx, "drsmith", hidden.ID)
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	own, err := f.records.ListRecords(ctx, "patient", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, own.Total)
}

func TestListRecordsFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.patient(t, "patient")

	create := func(title, date, recordType, notes string) {
		_, err := f.records.CreateRecord(ctx, "patient", &dto.CreateRecordRequest{
			Title: title, Date: date, RecordType: recordType, Facility: "Home", Notes: notes,
		})
		require.NoError(t, err)
	}
	create("Flu jab", "2024-01-05", "vaccination", "left arm")
	create("Knee scan", "2024-02-10", "imaging", "torn ligament")
	create("Booster", "2024-03-15", "vaccination", "right arm")

	all, err := f.records.ListRecords(ctx, "patient", &dto.RecordFilterRequest{})
	require.NoError(t, err)
	require.Equal(t, 3, all.Total)
	assert.Equal(t, "Booster", all.Records[0].Title, "newest first")

	byType, err := f.records.ListRecords(ctx, "patient", &dto.RecordFilterRequest{RecordType: "vaccination"})
	require.NoError(t, err)
	assert.Equal(t, 2, byType.Total)

	byNotes, err := f.records.ListRecords(ctx, "patient", &dto.RecordFilterRequest{Search: "LIGAMENT"})
	require.NoError(t, err)
	require.Equal(t, 1, byNotes.Total)
	assert.Equal(t, "Knee scan", byNotes.Records[0].Title)

	byRange, err := f.records.ListRecords(ctx, "patient", &dto.RecordFilterRequest{From: "2024-02-01", To: "2024-03-15"})
	require.NoError(t, err)
	assert.Equal(t, 2, byRange.Total)

	_, err = f.records.ListRecords(ctx, "patient", &dto.RecordFilterRequest{From: "last tuesday"})
	assert.ErrorIs(t, err, usecase.ErrInvalidDateFormat)
}

func TestListSharedRecordsExcludesOwned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.patient(t, "friend")
	f.ownRecord(t, "patient", "Mine")
	theirs := f.ownRecord(t, "friend", "Theirs")

	_, err := f.records.ShareRecord(ctx, "friend", theirs.ID, &dto.ShareRecordRequest{Username: "patient", AccessLevel: "view"})
	require.NoError(t, err)

	shared, err := f.records.ListSharedRecords(ctx, "patient", nil)
	require.NoError(t, err)
	require.Equal(t, 1, shared.Total)
	assert.Equal(t, theirs.ID, shared.Records[0].ID)
	assert.Equal(t, string(service.AccessShared), shared.Records[0].AccessLevel)
}

func TestCreateRecordRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	other := f.patient(t, "other")
	gp := f.gp(t, "drsmith", "Riverside Practice")

	t.Run("patient cannot write for someone else", func(t *testing.T) {
		_, err := f.records.CreateRecord(ctx, "patient", &dto.CreateRecordRequest{
			Patient: other.ID.String(), Title: "x", Date: "2024-01-01", RecordType: "note", Facility: "Home", Notes: "n",
		})
		assert.ErrorIs(t, err, service.ErrAccessDenied)
	})

	t.Run("patient must name a facility", func(t *testing.T) {
		_, err := f.records.CreateRecord(ctx, "patient", &dto.CreateRecordRequest{
			Title: "x", Date: "2024-01-01", RecordType: "note", Notes: "n",
		})
		assert.ErrorIs(t, err, usecase.ErrFacilityRequired)
	})

	t.Run("gp resolves patient by code", func(t *testing.T) {
		require.NotNil(t, p.PatientCode)
		record, err := f.records.CreateRecord(ctx, "drsmith", &dto.CreateRecordRequest{
			Patient: " " + *p.PatientCode + " ", Title: "x", Date: "2024-01-01", RecordType: "note", Notes: "n",
		})
		require.NoError(t, err)
		assert.Equal(t, p.ID, record.PatientUUID)
		assert.Equal(t, gp.ID, record.CreatedBy)
	})

	t.Run("gp must name a patient", func(t *testing.T) {
		_, err := f.records.CreateRecord(ctx, "drsmith", &dto.CreateRecordRequest{
			Title: "x", Date: "2024-01-01", RecordType: "note", Notes: "n",
		})
		assert.ErrorIs(t, err, usecase.ErrPatientNotFound)
	})

	t.Run("gp cannot be the patient", func(t *testing.T) {
		_, err := f.records.CreateRecord(ctx, "drsmith", &dto.CreateRecordRequest{
			Patient: gp.ID.String(), Title: "x", Date: "2024-01-01", RecordType: "note", Notes: "n",
		})
		assert.ErrorIs(t, err, usecase.ErrPatientNotFound)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, err := f.records.CreateRecord(ctx, "drsmith", &dto.CreateRecordRequest{
			Patient: uuid.NewString(), Title: "x", Date: "2024-01-01", RecordType: "note", Notes: "n",
		})
		assert.ErrorIs(t, err, usecase.ErrPatientNotFound)
	})

	t.Run("blank fields after trimming", func(t *testing.T) {
		drafts := map[string]dto.CreateRecordRequest{
			"title":       {Title: "   ", Date: "2024-01-01", RecordType: "note", Facility: "Home", Notes: "n"},
			"record type": {Title: "x", Date: "2024-01-01", RecordType: "\t", Facility: "Home", Notes: "n"},
			"notes":       {Title: "x", Date: "2024-01-01", RecordType: "note", Facility: "Home", Notes: " \n"},
		}
		for field, draft := range drafts {
			_, err := f.records.CreateRecord(ctx, "patient", &draft)
			assert.ErrorIs(t, err, usecase.ErrBlankRecordField, field)
		}

		listed, err := f.records.ListRecords(ctx, "patient", nil)
		require.NoError(t, err)
		for _, r := range listed.Records {
			assert.NotEmpty(t, r.Title)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := f.records.CreateRecord(ctx, "patient", &dto.CreateRecordRequest{
			Title: "x", Date: "01/02/2024", RecordType: "note", Facility: "Home", Notes: "n",
		})
		assert.ErrorIs(t, err, usecase.ErrInvalidDateFormat)
	})
}

func TestSignedRecordLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.gp(t, "drsmith", "Riverside Practice")
	f.patient(t, "friend")

	keys, err := f.profiles.IssueKeyPair(ctx, "drsmith")
	require.NoError(t, err)

	draft := &dto.CreateRecordRequest{
		Patient:    p.ID.String(),
		Title:      "Discharge summary",
		Date:       "2024-04-01T09:15:00Z",
		RecordType: "discharge",
		Notes:      "recovered well",
		Treatment:  "rest",
	}
	date, err := usecase.ParseRecordDate(draft.Date)
	require.NoError(t, err)
	fields := integrity.Fields{
		PatientUUID: p.ID,
		Title:       draft.Title,
		Date:        date,
		RecordType:  draft.RecordType,
		Content:     integrity.Content{Notes: draft.Notes, Treatment: draft.Treatment},
		Facility:    "Riverside Practice",
	}

	t.Run("signature over different content is refused", func(t *testing.T) {
		tampered := fields
		tampered.Title = "Something else"
		signature, err := integrity.Sign(tampered, keys.PrivateKey)
		require.NoError(t, err)

		bad := *draft
		bad.Signature = signature
		_, err = f.records.CreateRecord(ctx, "drsmith", &bad)
		assert.ErrorIs(t, err, usecase.ErrInvalidSignature)

		listing, err := f.records.ListRecords(ctx, "patient", nil)
		require.NoError(t, err)
		assert.Zero(t, listing.Total, "nothing written")
	})

	signature, err := integrity.Sign(fields, keys.PrivateKey)
	require.NoError(t, err)
	signed := *draft
	signed.Signature = signature

	record, err := f.records.CreateRecord(ctx, "drsmith", &signed)
	require.NoError(t, err)
	assert.True(t, record.Signed)
	require.NotNil(t, record.VerifiedBy)
	assert.Equal(t, "Riverside Practice", *record.VerifiedBy)
	assert.NotNil(t, record.VerifiedAt)

	result, err := f.records.VerifySignature(ctx, "patient", record.ID, "")
	require.NoError(t, err)
	assert.True(t, result.Verified, "creator key on file")

	result, err = f.records.VerifySignature(ctx, "patient", record.ID, keys.PublicKey)
	require.NoError(t, err)
	assert.True(t, result.Verified)

	otherPublic, _, err := integrity.GenerateKeyPair()
	require.NoError(t, err)
	result, err = f.records.VerifySignature(ctx, "patient", record.ID, otherPublic)
	require.NoError(t, err)
	assert.False(t, result.Verified)

	_, err = f.records.VerifySignature(ctx, "friend", record.ID, "")
	assert.ErrorIs(t, err, service.ErrAccessDenied)

	unsigned := f.ownRecord(t, "patient", "Unsigned")
	result, err = f.records.VerifySignature(ctx, "patient", unsigned.ID, keys.PublicKey)
	require.NoError(t, err)
	assert.False(t, result.Verified)
}

func TestSignedCreateRequiresIssuerKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.gp(t, "drsmith", "Riverside Practice")

	_, err := f.records.CreateRecord(ctx, "drsmith", &dto.CreateRecordRequest{
		Patient: p.ID.String(), Title: "x", Date: "2024-01-01", RecordType: "note", Notes: "n",
		Signature: "c2lnbmF0dXJl",
	})
	assert.ErrorIs(t, err, usecase.ErrIssuerHasNoKey)
}

func TestTransitionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.gp(t, "drsmith", "Riverside Practice")
	record := f.gpRecord(t, "drsmith", p, "Consultation")

	// Another request settles the record between the read and the write.
	f.store.BeforeCompareAndSet = func(id int64) {
		f.store.ForceStatus(id, entity.RecordStatusRejected)
	}

	_, err := f.records.TransitionStatus(ctx, "patient", record.ID, "accept")
	assert.ErrorIs(t, err, usecase.ErrStorageConflict)

	stored, err := f.store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordStatusRejected, stored.Status)
}

func TestTransitionRejectsUnknownAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.gp(t, "drsmith", "Riverside Practice")
	record := f.gpRecord(t, "drsmith", p, "Consultation")

	_, err := f.records.TransitionStatus(ctx, "patient", record.ID, "archive")
	assert.ErrorIs(t, err, entity.ErrInvalidAction)

	rejected, err := f.records.TransitionStatus(ctx, "patient", record.ID, "reject")
	require.NoError(t, err)
	assert.Equal(t, string(entity.RecordStatusRejected), rejected.Status)
}

func TestRecordAuditTrail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.patient(t, "patient")
	f.patient(t, "friend")
	f.gp(t, "drsmith", "Riverside Practice")
	record := f.gpRecord(t, "drsmith", p, "Consultation")

	_, err := f.records.ShareRecord(ctx, "patient", record.ID, &dto.ShareRecordRequest{Username: "friend", AccessLevel: "view"})
	require.NoError(t, err)
	_, err = f.records.TransitionStatus(ctx, "patient", record.ID, "accept")
	require.NoError(t, err)

	trail, err := f.records.RecordAuditTrail(ctx, "patient", record.ID)
	require.NoError(t, err)
	require.Equal(t, 3, trail.Total)
	assert.Equal(t, entity.AuditActionRecordCreate, trail.Logs[0].Action)
	assert.Equal(t, entity.AuditActionRecordShare, trail.Logs[1].Action)
	assert.Equal(t, entity.AuditActionRecordAccept, trail.Logs[2].Action)
}

func TestAuditFailureDoesNotBlockWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.patient(t, "patient")
	f.audits.Fail = true

	record := f.ownRecord(t, "patient", "Still saved")
	got, err := f.records.GetRecord(ctx, "patient", record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Still saved", got.Title)
}

func TestGetRecordNotFound(t *testing.T) {
	f := newFixture(t)
	f.patient(t, "patient")

	_, err := f.records.GetRecord(context.Background(), "patient", 42)
	assert.ErrorIs(t, err, usecase.ErrRecordNotFound)
}
