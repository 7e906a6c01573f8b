// Package inmemory provides mutex-guarded implementations of the domain
// repositories. They back unit tests and local runs without PostgreSQL and
// mimic the unique constraints of the real schema.
package inmemory

import (
	"context"
	"sync"

	"health-record-vault/internal/domain/entity"
	domainRepo "health-record-vault/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type UserStore struct {
	mu     sync.RWMutex
	users  map[int64]entity.User
	nextID int64

	// BeforeCreate runs before a user insert is applied. Tests use it to
	// slip a conflicting row in first.
	BeforeCreate func(user *entity.User)
}

var _ domainRepo.UserRepository = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[int64]entity.User)}
}

func (s *UserStore) Create(ctx context.Context, user *entity.User) error {
	if hook := s.BeforeCreate; hook != nil {
		hook(user)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == user.Username {
			return &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_username_key"}
		}
		if user.PatientCode != nil && u.PatientCode != nil && *u.PatientCode == *user.PatientCode {
			return &pgconn.PgError{Code: uniqueViolation, ConstraintName: "users_patient_code_key"}
		}
	}

	s.nextID++
	user.ID = s.nextID
	if user.UUID == uuid.Nil {
		user.UUID = uuid.New()
	}
	user.Role = roleFor(user.RoleID)
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *UserStore) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.find(func(u entity.User) bool { return u.ID == id })
}

func (s *UserStore) FindByUUID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return s.find(func(u entity.User) bool { return u.UUID == id })
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.find(func(u entity.User) bool { return u.Username == username })
}

func (s *UserStore) FindByPatientCode(ctx context.Context, code string) (*entity.User, error) {
	return s.find(func(u entity.User) bool { return u.PatientCode != nil && *u.PatientCode == code })
}

func (s *UserStore) UpdateProfile(ctx context.Context, user *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return nil
	}
	next := cloneUser(*user)
	current.EmergencyContacts = next.EmergencyContacts
	current.BloodType = next.BloodType
	current.Allergies = next.Allergies
	current.GPUsername = next.GPUsername
	s.users[user.ID] = current
	return nil
}

func (s *UserStore) SetPublicKey(ctx context.Context, id int64, publicKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[id]
	if !ok || current.HasPublicKey() {
		return 0, nil
	}
	current.PublicKey = &publicKey
	s.users[id] = current
	return 1, nil
}

// All returns a snapshot of every stored user.
func (s *UserStore) All() []entity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	return out
}

func (s *UserStore) find(match func(entity.User) bool) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			found := cloneUser(u)
			return &found, nil
		}
	}
	return nil, nil
}

func roleFor(id int) entity.Role {
	switch id {
	case entity.RoleIDPatient:
		return entity.Role{ID: id, RoleName: entity.RolePatient}
	case entity.RoleIDGP:
		return entity.Role{ID: id, RoleName: entity.RoleGP}
	}
	return entity.Role{ID: id}
}

func cloneUser(u entity.User) entity.User {
	if u.EmergencyContacts != nil {
		u.EmergencyContacts = append([]entity.EmergencyContact(nil), u.EmergencyContacts...)
	}
	if u.Allergies != nil {
		u.Allergies = append([]string(nil), u.Allergies...)
	}
	u.PatientCode = cloneString(u.PatientCode)
	u.BloodType = cloneString(u.BloodType)
	u.PublicKey = cloneString(u.PublicKey)
	u.GPUsername = cloneString(u.GPUsername)
	return u
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
