package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"health-record-vault/internal/converter"
	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/domain/repository"
	"health-record-vault/internal/infrastructure/metrics"
	"health-record-vault/internal/service"
	"health-record-vault/pkg/integrity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var (
	ErrRecordNotFound    = errors.New("health record not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrStorageConflict   = errors.New("record was modified concurrently, retry the request")
	ErrInvalidSignature  = errors.New("signature does not match record content")
	ErrIssuerHasNoKey    = errors.New("issuer has no public key on file")
	ErrFacilityRequired  = errors.New("facility is required")
	ErrBlankRecordField  = errors.New("title, record type and notes must not be blank")
	ErrInvalidDateFormat = errors.New("invalid date format, use RFC 3339 or YYYY-MM-DD")
)

type HealthRecordUsecase interface {
	CreateRecord(ctx context.Context, issuer string, req *dto.CreateRecordRequest) (*dto.HealthRecordResponse, error)
	GetRecord(ctx context.Context, requester string, id int64) (*dto.HealthRecordResponse, error)
	ListRecords(ctx context.Context, requester string, req *dto.RecordFilterRequest) (*dto.RecordListResponse, error)
	ListSharedRecords(ctx context.Context, requester string, req *dto.RecordFilterRequest) (*dto.RecordListResponse, error)
	ShareRecord(ctx context.Context, owner string, id int64, req *dto.ShareRecordRequest) (*dto.SharingResponse, error)
	RevokeShare(ctx context.Context, owner string, id int64, grantee string) (*dto.SharingResponse, error)
	SetEmergencyAccessible(ctx context.Context, owner string, id int64, accessible bool) (*dto.HealthRecordResponse, error)
	TransitionStatus(ctx context.Context, owner string, id int64, action string) (*dto.HealthRecordResponse, error)
	VerifySignature(ctx context.Context, requester string, id int64, publicKeyPEM string) (*dto.VerifyResponse, error)
	RecordAuditTrail(ctx context.Context, owner string, id int64) (*dto.AuditLogListResponse, error)
}

type healthRecordUsecase struct {
	log          *logrus.Logger
	recordRepo   repository.HealthRecordRepository
	directory    service.IdentityDirectory
	evaluator    service.AccessEvaluator
	ledger       service.SharingLedger
	auditService service.AuditService
	metrics      metrics.Recorder
	now          func() time.Time
}

func NewHealthRecordUsecase(
	log *logrus.Logger,
	recordRepo repository.HealthRecordRepository,
	directory service.IdentityDirectory,
	evaluator service.AccessEvaluator,
	ledger service.SharingLedger,
	auditService service.AuditService,
	recorder metrics.Recorder,
) HealthRecordUsecase {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &healthRecordUsecase{
		log:          log,
		recordRepo:   recordRepo,
		directory:    directory,
		evaluator:    evaluator,
		ledger:       ledger,
		auditService: auditService,
		metrics:      recorder,
		now:          time.Now,
	}
}

// RecordFields extracts the hashed subset of a record.
func RecordFields(record *entity.HealthRecord) integrity.Fields {
	content := record.Content.Data()
	return integrity.Fields{
		PatientUUID: record.PatientUUID,
		Title:       record.Title,
		Date:        record.Date,
		RecordType:  record.RecordType,
		Content: integrity.Content{
			Notes:        content.Notes,
			Diagnosis:    content.Diagnosis,
			Treatment:    content.Treatment,
			PrivateNotes: content.PrivateNotes,
		},
		Facility: record.Facility,
	}
}

// ParseRecordDate normalizes dates in UTC at second precision, the same form
// the canonical hash uses.
func ParseRecordDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDateFormat
}

func parseRecordFilter(req *dto.RecordFilterRequest) (*entity.RecordFilter, error) {
	filter := &entity.RecordFilter{}
	if req == nil {
		return filter, nil
	}

	filter.Search = strings.TrimSpace(req.Search)
	filter.RecordType = strings.TrimSpace(req.RecordType)

	if req.From != "" {
		from, err := ParseRecordDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := ParseRecordDate(req.To)
		if err != nil {
			return nil, err
		}
		// A bare day means the whole day.
		if !strings.Contains(req.To, "T") {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &to
	}
	return filter, nil
}

func (u *healthRecordUsecase) resolveRequester(ctx context.Context, username string) (*entity.User, error) {
	user, err := u.directory.ResolveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// resolvePatient accepts a UUID or a patient code. An empty reference means
// the issuer is writing for themself.
func (u *healthRecordUsecase) resolvePatient(ctx context.Context, issuer *entity.User, ref string) (*entity.User, error) {
	ref = strings.TrimSpace(ref)

	var (
		patient *entity.User
		err     error
	)
	switch {
	case ref == "":
		if !issuer.IsPatient() {
			return nil, ErrPatientNotFound
		}
		patient = issuer
	default:
		if id, parseErr := uuid.Parse(ref); parseErr == nil {
			patient, err = u.directory.ResolveByUUID(ctx, id)
		} else {
			patient, err = u.directory.ResolveByPatientCode(ctx, ref)
		}
	}

	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !patient.IsPatient() {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}

func (u *healthRecordUsecase) loadRecord(ctx context.Context, id int64) (*entity.HealthRecord, error) {
	record, err := u.recordRepo.FindByID(ctx, id)
	if err != nil {
		u.log.Warnf("Failed to find record %d: %+v", id, err)
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	return record, nil
}

// loadOwned loads a record and requires requester to own it.
func (u *healthRecordUsecase) loadOwned(ctx context.Context, owner string, id int64) (*entity.HealthRecord, error) {
	record, err := u.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.evaluator.AuthorizeWrite(ctx, record, owner); err != nil {
		return nil, err
	}
	return record, nil
}

func (u *healthRecordUsecase) CreateRecord(ctx context.Context, issuerUsername string, req *dto.CreateRecordRequest) (*dto.HealthRecordResponse, error) {
	issuer, err := u.resolveRequester(ctx, issuerUsername)
	if err != nil {
		return nil, err
	}

	patient, err := u.resolvePatient(ctx, issuer, req.Patient)
	if err != nil {
		return nil, err
	}

	// Patients only write their own records; GPs write for any patient.
	if issuer.IsPatient() && patient.UUID != issuer.UUID {
		return nil, service.ErrAccessDenied
	}

	title := strings.TrimSpace(req.Title)
	recordType := strings.TrimSpace(req.RecordType)
	if title == "" || recordType == "" || strings.TrimSpace(req.Notes) == "" {
		return nil, ErrBlankRecordField
	}

	date, err := ParseRecordDate(req.Date)
	if err != nil {
		return nil, err
	}

	facility := strings.TrimSpace(req.Facility)
	if facility == "" {
		if !issuer.IsGP() {
			return nil, ErrFacilityRequired
		}
		facility = issuer.FullName
	}

	now := u.now().UTC()
	record := &entity.HealthRecord{
		PatientUUID: patient.UUID,
		CreatedBy:   issuer.UUID,
		Title:       title,
		Date:        date,
		RecordType:  recordType,
		Facility:    facility,
		Content: datatypes.NewJSONType(entity.RecordContent{
			Notes:        req.Notes,
			Diagnosis:    req.Diagnosis,
			Treatment:    req.Treatment,
			PrivateNotes: req.PrivateNotes,
		}),
		Status:     entity.InitialStatus(issuer.UUID == patient.UUID),
		SharedWith: entity.GrantShare(nil, patient.Username, entity.ShareAccessView, now),
	}

	if req.Signature != "" {
		if !issuer.HasPublicKey() {
			return nil, ErrIssuerHasNoKey
		}
		if !integrity.Verify(RecordFields(record), req.Signature, *issuer.PublicKey) {
			return nil, ErrInvalidSignature
		}
		signature := req.Signature
		record.Signature = &signature
		record.VerifiedAt = &now
		record.VerifiedBy = &facility
	}

	if err := u.recordRepo.Create(ctx, record); err != nil {
		u.log.Warnf("Failed to create record for patient %s: %+v", patient.UUID, err)
		return nil, err
	}

	u.log.Infof("Record created: id=%d, patient=%s, status=%s, signed=%t", record.ID, patient.UUID, record.Status, record.IsSigned())
	u.auditService.LogCreate(ctx, &issuer.UUID, entity.AuditActionRecordCreate, entity.AuditEntityRecord, recordEntityID(record.ID), entity.JSON{
		"status": record.Status,
		"signed": record.IsSigned(),
	})

	decision, err := u.evaluator.EvaluateIdentity(ctx, record, issuer)
	if err != nil {
		return nil, err
	}
	return converter.HealthRecordToResponse(record, decision.Level), nil
}

func (u *healthRecordUsecase) GetRecord(ctx context.Context, requester string, id int64) (*dto.HealthRecordResponse, error) {
	record, err := u.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := u.evaluator.Evaluate(ctx, record, requester)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, service.ErrAccessDenied
	}

	return converter.HealthRecordToResponse(record, decision.Level), nil
}

// ListRecords returns owned records for patients and facility records for
// GPs. Every candidate passes the same check as GetRecord.
func (u *healthRecordUsecase) ListRecords(ctx context.Context, requester string, req *dto.RecordFilterRequest) (*dto.RecordListResponse, error) {
	filter, err := parseRecordFilter(req)
	if err != nil {
		return nil, err
	}

	user, err := u.resolveRequester(ctx, requester)
	if err != nil {
		return nil, err
	}

	var candidates []entity.HealthRecord
	if user.IsGP() {
		candidates, err = u.recordRepo.FindByFacility(ctx, user.FullName, filter)
	} else {
		candidates, err = u.recordRepo.FindByPatientUUID(ctx, user.UUID, filter)
	}
	if err != nil {
		u.log.Warnf("Failed to list records for %s: %+v", requester, err)
		return nil, err
	}

	return u.visibleTo(ctx, user, candidates, false)
}

// ListSharedRecords returns other patients' records the requester reaches
// through a view grant or as an emergency contact.
func (u *healthRecordUsecase) ListSharedRecords(ctx context.Context, requester string, req *dto.RecordFilterRequest) (*dto.RecordListResponse, error) {
	filter, err := parseRecordFilter(req)
	if err != nil {
		return nil, err
	}

	user, err := u.resolveRequester(ctx, requester)
	if err != nil {
		return nil, err
	}

	candidates, err := u.recordRepo.FindSharedWith(ctx, user.Username, filter)
	if err != nil {
		u.log.Warnf("Failed to list shared records for %s: %+v", requester, err)
		return nil, err
	}

	return u.visibleTo(ctx, user, candidates, true)
}

func (u *healthRecordUsecase) visibleTo(ctx context.Context, user *entity.User, candidates []entity.HealthRecord, excludeOwned bool) (*dto.RecordListResponse, error) {
	records := make([]dto.HealthRecordResponse, 0, len(candidates))
	for i := range candidates {
		record := &candidates[i]

		decision, err := u.evaluator.EvaluateIdentity(ctx, record, user)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			continue
		}
		if excludeOwned && decision.Level == service.AccessOwner {
			continue
		}
		records = append(records, *converter.HealthRecordToResponse(record, decision.Level))
	}

	return &dto.RecordListResponse{
		Records: records,
		Total:   len(records),
	}, nil
}

func (u *healthRecordUsecase) ShareRecord(ctx context.Context, owner string, id int64, req *dto.ShareRecordRequest) (*dto.SharingResponse, error) {
	record, err := u.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	updated, err := u.ledger.Grant(ctx, record.ID, req.Username, req.AccessLevel)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecordNotFound
	}

	u.log.Infof("Record %d shared with %s (%s)", id, req.Username, req.AccessLevel)
	u.auditService.LogUpdate(ctx, &record.PatientUUID, entity.AuditActionRecordShare, entity.AuditEntityRecord, recordEntityID(id),
		converter.SharedAccessToResponses(record.SharedWith),
		converter.SharedAccessToResponses(updated.SharedWith),
	)

	return converter.RecordToSharingResponse(updated), nil
}

func (u *healthRecordUsecase) RevokeShare(ctx context.Context, owner string, id int64, grantee string) (*dto.SharingResponse, error) {
	record, err := u.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	updated, err := u.ledger.Revoke(ctx, record.ID, grantee)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrRecordNotFound
	}

	u.log.Infof("Record %d share revoked for %s", id, grantee)
	u.auditService.LogUpdate(ctx, &record.PatientUUID, entity.AuditActionRecordRevoke, entity.AuditEntityRecord, recordEntityID(id),
		converter.SharedAccessToResponses(record.SharedWith),
		converter.SharedAccessToResponses(updated.SharedWith),
	)

	return converter.RecordToSharingResponse(updated), nil
}

func (u *healthRecordUsecase) SetEmergencyAccessible(ctx context.Context, owner string, id int64, accessible bool) (*dto.HealthRecordResponse, error) {
	record, err := u.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	rows, err := u.recordRepo.UpdateEmergencyAccess(ctx, id, accessible)
	if err != nil {
		u.log.Warnf("Failed to update emergency access on record %d: %+v", id, err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrRecordNotFound
	}

	previous := record.IsEmergencyAccessible
	record.IsEmergencyAccessible = accessible

	u.auditService.LogUpdate(ctx, &record.PatientUUID, entity.AuditActionRecordEmergency, entity.AuditEntityRecord, recordEntityID(id), previous, accessible)
	return converter.HealthRecordToResponse(record, service.AccessOwner), nil
}

// TransitionStatus moves a pending record to accepted or rejected. The
// store write is conditioned on the record still being pending.
func (u *healthRecordUsecase) TransitionStatus(ctx context.Context, owner string, id int64, action string) (*dto.HealthRecordResponse, error) {
	recordAction, err := entity.ParseRecordAction(action)
	if err != nil {
		return nil, err
	}

	record, err := u.loadOwned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	next, err := record.Status.Transition(recordAction)
	if err != nil {
		u.metrics.StatusTransition("invalid")
		return nil, err
	}

	rows, err := u.recordRepo.CompareAndSetStatus(ctx, id, record.Status, next)
	if err != nil {
		u.log.Warnf("Failed to update status of record %d: %+v", id, err)
		return nil, err
	}
	if rows == 0 {
		u.metrics.StatusTransition("conflict")
		return nil, ErrStorageConflict
	}

	previous := record.Status
	record.Status = next
	u.metrics.StatusTransition(string(next))
	u.log.Infof("Record %d status %s -> %s", id, previous, next)

	auditAction := entity.AuditActionRecordAccept
	if next == entity.RecordStatusRejected {
		auditAction = entity.AuditActionRecordReject
	}
	u.auditService.LogUpdate(ctx, &record.PatientUUID, auditAction, entity.AuditEntityRecord, recordEntityID(id), previous, next)

	return converter.HealthRecordToResponse(record, service.AccessOwner), nil
}

// VerifySignature checks the stored signature against publicKeyPEM, or the
// creator's key on file when none is given. A failed check is a false
// result, not an error.
func (u *healthRecordUsecase) VerifySignature(ctx context.Context, requester string, id int64, publicKeyPEM string) (*dto.VerifyResponse, error) {
	record, err := u.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	decision, err := u.evaluator.Evaluate(ctx, record, requester)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, service.ErrAccessDenied
	}

	result := &dto.VerifyResponse{RecordID: record.ID}
	if !record.IsSigned() {
		return result, nil
	}

	key := strings.TrimSpace(publicKeyPEM)
	if key == "" {
		creator, err := u.directory.ResolveByUUID(ctx, record.CreatedBy)
		if err != nil && !errors.Is(err, service.ErrIdentityNotFound) {
			return nil, err
		}
		if creator == nil || !creator.HasPublicKey() {
			return result, nil
		}
		key = *creator.PublicKey
	}

	result.Verified = integrity.Verify(RecordFields(record), *record.Signature, key)
	return result, nil
}

func (u *healthRecordUsecase) RecordAuditTrail(ctx context.Context, owner string, id int64) (*dto.AuditLogListResponse, error) {
	if _, err := u.loadOwned(ctx, owner, id); err != nil {
		return nil, err
	}

	logs, err := u.auditService.Trail(ctx, entity.AuditEntityRecord, recordEntityID(id))
	if err != nil {
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: len(logs),
	}, nil
}

func recordEntityID(id int64) string {
	return strconv.FormatInt(id, 10)
}
