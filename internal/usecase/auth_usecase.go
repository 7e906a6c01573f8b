package usecase

import (
	"context"
	"errors"
	"strings"

	"health-record-vault/internal/converter"
	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/domain/entity"
	"health-record-vault/internal/domain/repository"
	"health-record-vault/internal/service"
	"health-record-vault/pkg/jwt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrInvalidCredentials    = errors.New("invalid username or password")
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrTokenRevoked          = errors.New("token has been revoked")
	ErrUserNotFound          = errors.New("user not found")
	ErrPatientCodeConflict   = errors.New("could not assign a unique patient code")
)

// patientCodeInsertAttempts bounds retries when a freshly drawn code loses
// the race for the unique constraint to a concurrent registration.
const patientCodeInsertAttempts = 3

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	RegisterGP(ctx context.Context, req *dto.RegisterGPRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshTokenID string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authUsecase struct {
	log          *logrus.Logger
	userRepo     repository.UserRepository
	directory    service.IdentityDirectory
	auditService service.AuditService
	jwtService   *jwt.JWTService
	tokenStore   service.TokenStore
	bcryptCost   int
}

func NewAuthUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	directory service.IdentityDirectory,
	auditService service.AuditService,
	jwtService *jwt.JWTService,
	tokenStore service.TokenStore,
) AuthUsecase {
	return &authUsecase{
		log:          log,
		userRepo:     userRepo,
		directory:    directory,
		auditService: auditService,
		jwtService:   jwtService,
		tokenStore:   tokenStore,
		bcryptCost:   bcrypt.DefaultCost,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	hashedPassword, err := u.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= patientCodeInsertAttempts; attempt++ {
		code, err := u.directory.GenerateUniquePatientCode(ctx)
		if err != nil {
			return nil, err
		}

		user := newUser(req.Username, hashedPassword, req.FullName, entity.RoleIDPatient)
		user.PatientCode = &code

		err = u.userRepo.Create(ctx, user)
		if err == nil {
			u.log.Infof("Patient registered: username=%s, code=%s", user.Username, code)
			u.audit(ctx, &user.UUID, entity.AuditActionUserRegister, user)
			return converter.UserToResponse(user), nil
		}

		if isDuplicateKeyError(err, "username") {
			return nil, ErrUsernameAlreadyExists
		}
		if isDuplicateKeyError(err, "patient_code") {
			u.log.Infof("Patient code %s taken concurrently (attempt %d), drawing again", code, attempt)
			continue
		}

		u.log.Warnf("Failed to create patient: %+v", err)
		return nil, err
	}

	return nil, ErrPatientCodeConflict
}

func (u *authUsecase) RegisterGP(ctx context.Context, req *dto.RegisterGPRequest) (*dto.UserResponse, error) {
	hashedPassword, err := u.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := newUser(req.Username, hashedPassword, req.FullName, entity.RoleIDGP)
	if err := u.userRepo.Create(ctx, user); err != nil {
		if isDuplicateKeyError(err, "username") {
			return nil, ErrUsernameAlreadyExists
		}
		u.log.Warnf("Failed to create GP: %+v", err)
		return nil, err
	}

	u.log.Infof("GP registered: username=%s", user.Username)
	u.audit(ctx, &user.UUID, entity.AuditActionUserRegister, user)
	return converter.UserToResponse(user), nil
}

func newUser(username, hashedPassword, fullName string, roleID int) *entity.User {
	return &entity.User{
		UUID:              uuid.New(),
		RoleID:            roleID,
		Username:          username,
		Password:          hashedPassword,
		FullName:          strings.TrimSpace(fullName),
		EmergencyContacts: []entity.EmergencyContact{},
		Allergies:         []string{},
	}
}

func (u *authUsecase) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return "", err
	}
	return string(hashed), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		u.log.Warnf("Failed to find user by username: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := u.issueTokens(ctx, user.UUID, user.Username, user.RoleID)
	if err != nil {
		return nil, err
	}

	u.auditEvent(ctx, &user.UUID, entity.AuditActionUserLogin, user.UUID.String())
	return tokens, nil
}

func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshTokenID string) error {
	if err := u.tokenStore.Revoke(ctx, userID, accessTokenID, refreshTokenID); err != nil {
		return err
	}
	u.auditEvent(ctx, &userID, entity.AuditActionUserLogout, userID.String())
	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	// Single use: the old refresh token is consumed before new ones are issued
	existed, err := u.tokenStore.ConsumeRefresh(ctx, claims.UserID, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if !existed {
		return nil, ErrTokenRevoked
	}

	return u.issueTokens(ctx, claims.UserID, claims.Username, claims.RoleID)
}

func (u *authUsecase) issueTokens(ctx context.Context, userID uuid.UUID, username string, roleID int) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(userID, username, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(userID, username, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokenStore.StoreAccess(ctx, userID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		return nil, err
	}
	if err := u.tokenStore.StoreRefresh(ctx, userID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.directory.ResolveByUUID(ctx, userID)
	if err != nil {
		if errors.Is(err, service.ErrIdentityNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) audit(ctx context.Context, actor *uuid.UUID, action string, user *entity.User) {
	u.auditService.LogCreate(ctx, actor, action, entity.AuditEntityUser, user.UUID.String(), entity.JSON{
		"username": user.Username,
		"role":     user.RoleName(),
	})
}

func (u *authUsecase) auditEvent(ctx context.Context, actor *uuid.UUID, action, entityID string) {
	u.auditService.LogEvent(ctx, actor, action, entity.AuditEntityUser, entityID, nil)
}

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
// containing the specified constraint name
func isDuplicateKeyError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// PostgreSQL error code 23505 = unique_violation
		if pgErr.Code == "23505" && strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName)) {
			return true
		}
	}
	return false
}
