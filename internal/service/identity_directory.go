package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/domain/repository"
	"health-record-vault/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrIdentityNotFound is a normal lookup outcome, not a failure.
var ErrIdentityNotFound = errors.New("identity not found")

const defaultPatientCodeBytes = 3

type IdentityDirectory interface {
	ResolveByUsername(ctx context.Context, username string) (*entity.User, error)
	ResolveByUUID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	ResolveByPatientCode(ctx context.Context, code string) (*entity.User, error)
	// GenerateUniquePatientCode draws codes until one is unused. It only
	// stops early on context cancellation or a store error.
	GenerateUniquePatientCode(ctx context.Context) (string, error)
}

type DirectoryOption func(*identityDirectory)

// WithRandomSource replaces crypto/rand as the patient code source.
func WithRandomSource(r io.Reader) DirectoryOption {
	return func(d *identityDirectory) {
		d.random = r
	}
}

type identityDirectory struct {
	log       *logrus.Logger
	userRepo  repository.UserRepository
	metrics   metrics.Recorder
	codeBytes int
	random    io.Reader
}

func NewIdentityDirectory(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	recorder metrics.Recorder,
	codeBytes int,
	opts ...DirectoryOption,
) IdentityDirectory {
	if codeBytes < 1 {
		codeBytes = defaultPatientCodeBytes
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	d := &identityDirectory{
		log:       log,
		userRepo:  userRepo,
		metrics:   recorder,
		codeBytes: codeBytes,
		random:    rand.Reader,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NormalizePatientCode trims and upper-cases a code typed by a person.
func NormalizePatientCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (d *identityDirectory) ResolveByUsername(ctx context.Context, username string) (*entity.User, error) {
	if username == "" {
		return nil, ErrIdentityNotFound
	}
	return d.resolve(d.userRepo.FindByUsername(ctx, username))
}

func (d *identityDirectory) ResolveByUUID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if id == uuid.Nil {
		return nil, ErrIdentityNotFound
	}
	return d.resolve(d.userRepo.FindByUUID(ctx, id))
}

func (d *identityDirectory) ResolveByPatientCode(ctx context.Context, code string) (*entity.User, error) {
	code = NormalizePatientCode(code)
	if code == "" {
		return nil, ErrIdentityNotFound
	}
	return d.resolve(d.userRepo.FindByPatientCode(ctx, code))
}

func (d *identityDirectory) resolve(user *entity.User, err error) (*entity.User, error) {
	if err != nil {
		d.log.Warnf("Failed to resolve identity: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrIdentityNotFound
	}
	return user, nil
}

func (d *identityDirectory) GenerateUniquePatientCode(ctx context.Context) (string, error) {
	buf := make([]byte, d.codeBytes)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		if _, err := io.ReadFull(d.random, buf); err != nil {
			return "", fmt.Errorf("read random patient code: %w", err)
		}
		code := fmt.Sprintf("%X", buf)

		existing, err := d.userRepo.FindByPatientCode(ctx, code)
		if err != nil {
			d.log.Warnf("Failed to check patient code availability: %+v", err)
			return "", err
		}

		d.metrics.PatientCodeDraw(existing != nil)
		if existing == nil {
			return code, nil
		}
		d.log.Debugf("Patient code %s already taken, drawing again", code)
	}
}
