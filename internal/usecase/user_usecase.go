package usecase

import (
	"context"
	"errors"

	"health-record-vault/internal/converter"
	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/domain/repository"
	"health-record-vault/internal/service"
	"health-record-vault/pkg/integrity"

	"github.com/sirupsen/logrus"
)

var (
	ErrEmergencyContactNotFound = errors.New("emergency contact username does not exist")
	ErrGPNotFound               = errors.New("gp username does not belong to a GP")
	ErrKeyAlreadyIssued         = errors.New("a signing key has already been issued for this user")
)

type UserUsecase interface {
	UpdateProfile(ctx context.Context, username string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	IssueKeyPair(ctx context.Context, username string) (*dto.KeyPairResponse, error)
	LookupPatientByCode(ctx context.Context, gpUsername string, code string) (*dto.PatientLookupResponse, error)
}

type userUsecase struct {
	log          *logrus.Logger
	userRepo     repository.UserRepository
	directory    service.IdentityDirectory
	limiter      service.LookupLimiter
	auditService service.AuditService
}

func NewUserUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	directory service.IdentityDirectory,
	limiter service.LookupLimiter,
	auditService service.AuditService,
) UserUsecase {
	return &userUsecase{
		log:          log,
		userRepo:     userRepo,
		directory:    directory,
		limiter:      limiter,
		auditService: auditService,
	}
}

func (u *userUsecase) resolveSelf(ctx context.Context, username string) (*entity.User, error) {
	user, err := u.directory.ResolveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile validates every referenced username before writing, so a
// bad contact list leaves the stored profile untouched.
func (u *userUsecase) UpdateProfile(ctx context.Context, username string, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := u.resolveSelf(ctx, username)
	if err != nil {
		return nil, err
	}
	before := converter.UserToResponse(user)

	if req.EmergencyContacts != nil {
		contacts := converter.EmergencyContactsFromRequests(*req.EmergencyContacts)
		for _, c := range contacts {
			if _, err := u.directory.ResolveByUsername(ctx, c.Username); err != nil {
				if errors.Is(err, service.ErrIdentityNotFound) {
					return nil, ErrEmergencyContactNotFound
				}
				return nil, err
			}
		}
		user.EmergencyContacts = contacts
	}

	if req.GPUsername != nil {
		if *req.GPUsername == "" {
			user.GPUsername = nil
		} else {
			gp, err := u.directory.ResolveByUsername(ctx, *req.GPUsername)
			if err != nil && !errors.Is(err, service.ErrIdentityNotFound) {
				return nil, err
			}
			if gp == nil || !gp.IsGP() {
				return nil, ErrGPNotFound
			}
			gpUsername := gp.Username
			user.GPUsername = &gpUsername
		}
	}

	if req.BloodType != nil {
		if *req.BloodType == "" {
			user.BloodType = nil
		} else {
			bloodType := *req.BloodType
			user.BloodType = &bloodType
		}
	}

	if req.Allergies != nil {
		user.Allergies = append([]string{}, (*req.Allergies)...)
	}

	if err := u.userRepo.UpdateProfile(ctx, user); err != nil {
		u.log.Warnf("Failed to update profile for %s: %+v", username, err)
		return nil, err
	}

	after := converter.UserToResponse(user)
	u.auditService.LogUpdate(ctx, &user.UUID, entity.AuditActionProfileUpdate, entity.AuditEntityUser, user.UUID.String(), before, after)

	u.log.Infof("Profile updated: username=%s", username)
	return after, nil
}

// IssueKeyPair stores only the public half. The private key is returned
// once and is the caller's to keep.
func (u *userUsecase) IssueKeyPair(ctx context.Context, username string) (*dto.KeyPairResponse, error) {
	user, err := u.resolveSelf(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.HasPublicKey() {
		return nil, ErrKeyAlreadyIssued
	}

	publicPEM, privatePEM, err := integrity.GenerateKeyPair()
	if err != nil {
		u.log.Warnf("Failed to generate key pair: %+v", err)
		return nil, err
	}

	rows, err := u.userRepo.SetPublicKey(ctx, user.ID, publicPEM)
	if err != nil {
		u.log.Warnf("Failed to store public key for %s: %+v", username, err)
		return nil, err
	}
	if rows == 0 {
		return nil, ErrKeyAlreadyIssued
	}

	u.auditService.LogEvent(ctx, &user.UUID, entity.AuditActionKeysIssue, entity.AuditEntityUser, user.UUID.String(), nil)
	u.log.Infof("Signing key issued: username=%s", username)

	return &dto.KeyPairResponse{
		PublicKey:  publicPEM,
		PrivateKey: privatePEM,
	}, nil
}

func (u *userUsecase) LookupPatientByCode(ctx context.Context, gpUsername string, code string) (*dto.PatientLookupResponse, error) {
	gp, err := u.directory.ResolveByUsername(ctx, gpUsername)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			return nil, service.ErrAccessDenied
		}
		return nil, err
	}
	if !gp.IsGP() {
		return nil, service.ErrAccessDenied
	}

	if err := u.limiter.Allow(ctx, gp.Username); err != nil {
		return nil, err
	}

	patient, err := u.directory.ResolveByPatientCode(ctx, code)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !patient.IsPatient() {
		return nil, ErrPatientNotFound
	}

	u.auditService.LogEvent(ctx, &gp.UUID, entity.AuditActionPatientLookup, entity.AuditEntityUser, patient.UUID.String(), entity.JSON{
		"gp": gp.Username,
	})

	return converter.UserToPatientLookupResponse(patient), nil
}
