package service

import (
	"context"
	"errors"

	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/infrastructure/metrics"

	"github.com/sirupsen/logrus"
)

var ErrAccessDenied = errors.New("access denied")

// AccessLevel is how a requester reached a record.
type AccessLevel string

const (
	AccessOwner     AccessLevel = "owner"
	AccessShared    AccessLevel = "shared"
	AccessEmergency AccessLevel = "emergency"
	AccessNone      AccessLevel = "none"
)

// Decision is the outcome of one access evaluation.
type Decision struct {
	Allowed bool
	Level   AccessLevel
	Reason  string
}

func allow(level AccessLevel, reason string) Decision {
	return Decision{Allowed: true, Level: level, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Level: AccessNone, Reason: reason}
}

// AccessEvaluator decides read and write access to a record. Nothing is
// cached: every call sees the current identity, owner and record state.
type AccessEvaluator interface {
	Evaluate(ctx context.Context, record *entity.HealthRecord, requesterUsername string) (Decision, error)
	// EvaluateIdentity is Evaluate for a requester that is already resolved.
	EvaluateIdentity(ctx context.Context, record *entity.HealthRecord, requester *entity.User) (Decision, error)
	// AuthorizeWrite returns ErrAccessDenied unless requester owns the record.
	AuthorizeWrite(ctx context.Context, record *entity.HealthRecord, requesterUsername string) error
}

type accessEvaluator struct {
	log       *logrus.Logger
	directory IdentityDirectory
	metrics   metrics.Recorder
}

func NewAccessEvaluator(log *logrus.Logger, directory IdentityDirectory, recorder metrics.Recorder) AccessEvaluator {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &accessEvaluator{
		log:       log,
		directory: directory,
		metrics:   recorder,
	}
}

func (e *accessEvaluator) Evaluate(ctx context.Context, record *entity.HealthRecord, requesterUsername string) (Decision, error) {
	requester, err := e.directory.ResolveByUsername(ctx, requesterUsername)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metrics.AccessDecision(string(AccessNone))
			return deny("requester unknown"), nil
		}
		return Decision{}, err
	}
	return e.EvaluateIdentity(ctx, record, requester)
}

func (e *accessEvaluator) EvaluateIdentity(ctx context.Context, record *entity.HealthRecord, requester *entity.User) (Decision, error) {
	decision, err := e.decide(ctx, record, requester)
	if err != nil {
		return Decision{}, err
	}
	e.metrics.AccessDecision(string(decision.Level))
	return decision, nil
}

// decide applies the precedence owner > explicit view share > emergency
// contact. The first matching rule wins.
func (e *accessEvaluator) decide(ctx context.Context, record *entity.HealthRecord, requester *entity.User) (Decision, error) {
	if record == nil || requester == nil {
		return deny("nothing to evaluate"), nil
	}

	if record.PatientUUID == requester.UUID {
		return allow(AccessOwner, "requester owns the record"), nil
	}

	if share, ok := record.ShareFor(requester.Username); ok && share.AccessLevel == entity.ShareAccessView {
		return allow(AccessShared, "record shared with requester"), nil
	}

	if !record.IsEmergencyAccessible {
		return deny("no grant for requester"), nil
	}

	owner, err := e.directory.ResolveByUUID(ctx, record.PatientUUID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return deny("record owner unknown"), nil
		}
		return Decision{}, err
	}

	if contact, ok := owner.EmergencyContactFor(requester.Username); ok && contact.CanViewRecords {
		return allow(AccessEmergency, "requester is an emergency contact"), nil
	}

	return deny("no grant for requester"), nil
}

func (e *accessEvaluator) AuthorizeWrite(ctx context.Context, record *entity.HealthRecord, requesterUsername string) error {
	decision, err := e.Evaluate(ctx, record, requesterUsername)
	if err != nil {
		return err
	}
	if !decision.Allowed || decision.Level != AccessOwner {
		return ErrAccessDenied
	}
	return nil
}
