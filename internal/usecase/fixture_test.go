package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"health-record-vault/config"
	"health-record-vault/internal/delivery/dto"
	"health-record-vault/internal/repository/inmemory"
	"health-record-vault/internal/service"
	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type memoryTokenStore struct {
	mu      sync.Mutex
	access  map[string]bool
	refresh map[string]bool
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{access: map[string]bool{}, refresh: map[string]bool{}}
}

func tokenKey(userID uuid.UUID, tokenID string) string {
	return userID.String() + ":" + tokenID
}

func (s *memoryTokenStore) StoreAccess(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access[tokenKey(userID, tokenID)] = true
	return nil
}

func (s *memoryTokenStore) StoreRefresh(ctx context.Context, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[tokenKey(userID, tokenID)] = true
	return nil
}

func (s *memoryTokenStore) AccessValid(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access[tokenKey(userID, tokenID)], nil
}

func (s *memoryTokenStore) ConsumeRefresh(ctx context.Context, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey(userID, tokenID)
	existed := s.refresh[key]
	delete(s.refresh, key)
	return existed, nil
}

func (s *memoryTokenStore) Revoke(ctx context.Context, userID uuid.UUID, accessTokenID, refreshTokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.access, tokenKey(userID, accessTokenID))
	delete(s.refresh, tokenKey(userID, refreshTokenID))
	return nil
}

type stubLimiter struct {
	err   error
	calls int
}

func (l *stubLimiter) Allow(ctx context.Context, caller string) error {
	l.calls++
	return l.err
}

type fixture struct {
	users   *inmemory.UserStore
	store   *inmemory.HealthRecordStore
	audits  *inmemory.AuditLogStore
	tokens  *memoryTokenStore
	limiter *stubLimiter
	jwt     *jwt.JWTService

	directory service.IdentityDirectory
	auth      usecase.AuthUsecase
	profiles  usecase.UserUsecase
	records   usecase.HealthRecordUsecase
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newFixture(t *testing.T, opts ...service.DirectoryOption) *fixture {
	t.Helper()

	log := quietLogger()
	f := &fixture{
		users:   inmemory.NewUserStore(),
		audits:  inmemory.NewAuditLogStore(),
		tokens:  newMemoryTokenStore(),
		limiter: &stubLimiter{},
		jwt: jwt.NewJWTService(config.JWTConfig{
			Secret:        "test-secret",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
		}),
	}
	f.store = inmemory.NewHealthRecordStore(f.users)

	auditService := service.NewAuditService(log, f.audits)
	f.directory = service.NewIdentityDirectory(log, f.users, nil, 3, opts...)
	evaluator := service.NewAccessEvaluator(log, f.directory, nil)
	ledger := service.NewSharingLedger(log, f.directory, f.store)

	f.auth = usecase.NewAuthUsecase(log, f.users, f.directory, auditService, f.jwt, f.tokens)
	f.profiles = usecase.NewUserUsecase(log, f.users, f.directory, f.limiter, auditService)
	f.records = usecase.NewHealthRecordUsecase(log, f.store, f.directory, evaluator, ledger, auditService, nil)
	return f
}

func (f *fixture) patient(t *testing.T, username string) *dto.UserResponse {
	t.Helper()
	user, err := f.auth.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Username: username,
		Password: "password123",
		FullName: "Patient " + username,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) gp(t *testing.T, username, practice string) *dto.UserResponse {
	t.Helper()
	user, err := f.auth.RegisterGP(context.Background(), &dto.RegisterGPRequest{
		Username: username,
		Password: "password123",
		FullName: practice,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) ownRecord(t *testing.T, patient, title string) *dto.HealthRecordResponse {
	t.Helper()
	record, err := f.records.CreateRecord(context.Background(), patient, &dto.CreateRecordRequest{
		Title:      title,
		Date:       "2024-03-01",
		RecordType: "note",
		Facility:   "Home",
		Notes:      "notes for " + title,
	})
	require.NoError(t, err)
	return record
}

func (f *fixture) gpRecord(t *testing.T, gp string, patient *dto.UserResponse, title string) *dto.HealthRecordResponse {
	t.Helper()
	record, err := f.records.CreateRecord(context.Background(), gp, &dto.CreateRecordRequest{
		Patient:    patient.ID.String(),
		Title:      title,
		Date:       "2024-03-02T10:30:00Z",
		RecordType: "consultation",
		Notes:      "seen at the practice",
		Diagnosis:  "common cold",
	})
	require.NoError(t, err)
	return record
}
