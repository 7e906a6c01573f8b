package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"health-record-vault/internal/domain/entity"
	domainRepo "health-record-vault/internal/domain/repository"

	"github.com/google/uuid"
)

type HealthRecordStore struct {
	mu      sync.Mutex
	records map[int64]entity.HealthRecord
	nextID  int64
	users   *UserStore

	// BeforeCompareAndSet runs before the status swap takes the lock, so a
	// test can change the status underneath it.
	BeforeCompareAndSet func(id int64)
}

var _ domainRepo.HealthRecordRepository = (*HealthRecordStore)(nil)

// NewHealthRecordStore needs the user store to answer emergency-contact
// queries the way the SQL subquery does.
func NewHealthRecordStore(users *UserStore) *HealthRecordStore {
	return &HealthRecordStore{
		records: make(map[int64]entity.HealthRecord),
		users:   users,
	}
}

func (s *HealthRecordStore) Create(ctx context.Context, record *entity.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := time.Now()
	record.ID = s.nextID
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.SharedWith == nil {
		record.SharedWith = []entity.SharedAccess{}
	}
	s.records[record.ID] = cloneRecord(*record)
	return nil
}

func (s *HealthRecordStore) FindByID(ctx context.Context, id int64) (*entity.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	found := cloneRecord(r)
	return &found, nil
}

func (s *HealthRecordStore) FindByPatientUUID(ctx context.Context, patientUUID uuid.UUID, filter *entity.RecordFilter) ([]entity.HealthRecord, error) {
	return s.findAll(filter, func(r entity.HealthRecord) bool { return r.PatientUUID == patientUUID }), nil
}

func (s *HealthRecordStore) FindByFacility(ctx context.Context, facility string, filter *entity.RecordFilter) ([]entity.HealthRecord, error) {
	return s.findAll(filter, func(r entity.HealthRecord) bool { return r.Facility == facility }), nil
}

func (s *HealthRecordStore) FindSharedWith(ctx context.Context, username string, filter *entity.RecordFilter) ([]entity.HealthRecord, error) {
	contactOf := make(map[uuid.UUID]bool)
	if s.users != nil {
		for _, u := range s.users.All() {
			if c, ok := u.EmergencyContactFor(username); ok && c.CanViewRecords {
				contactOf[u.UUID] = true
			}
		}
	}

	return s.findAll(filter, func(r entity.HealthRecord) bool {
		if share, ok := r.ShareFor(username); ok && share.AccessLevel == entity.ShareAccessView {
			return true
		}
		return r.IsEmergencyAccessible && contactOf[r.PatientUUID]
	}), nil
}

func (s *HealthRecordStore) UpdateSharing(ctx context.Context, id int64, mutate domainRepo.LedgerMutation) (*entity.HealthRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}

	next, err := mutate(r.Grantees())
	if err != nil {
		return nil, err
	}

	r.SharedWith = append([]entity.SharedAccess{}, next...)
	r.UpdatedAt = time.Now()
	s.records[id] = r

	updated := cloneRecord(r)
	return &updated, nil
}

func (s *HealthRecordStore) UpdateEmergencyAccess(ctx context.Context, id int64, accessible bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return 0, nil
	}
	r.IsEmergencyAccessible = accessible
	r.UpdatedAt = time.Now()
	s.records[id] = r
	return 1, nil
}

func (s *HealthRecordStore) CompareAndSetStatus(ctx context.Context, id int64, from, to entity.RecordStatus) (int64, error) {
	if hook := s.BeforeCompareAndSet; hook != nil {
		hook(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok || r.Status != from {
		return 0, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	s.records[id] = r
	return 1, nil
}

// ForceStatus overwrites a record's status without any checks.
func (s *HealthRecordStore) ForceStatus(id int64, status entity.RecordStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[id]; ok {
		r.Status = status
		s.records[id] = r
	}
}

func (s *HealthRecordStore) findAll(filter *entity.RecordFilter, match func(entity.HealthRecord) bool) []entity.HealthRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.HealthRecord, 0)
	for _, r := range s.records {
		if match(r) && matchesFilter(r, filter) {
			out = append(out, cloneRecord(r))
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID > out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func matchesFilter(r entity.HealthRecord, filter *entity.RecordFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		notes := strings.ToLower(r.Content.Data().Notes)
		if !strings.Contains(strings.ToLower(r.Title), needle) && !strings.Contains(notes, needle) {
			return false
		}
	}
	if filter.RecordType != "" && r.RecordType != filter.RecordType {
		return false
	}
	if filter.From != nil && r.Date.Before(*filter.From) {
		return false
	}
	if filter.To != nil && r.Date.After(*filter.To) {
		return false
	}
	return true
}

func cloneRecord(r entity.HealthRecord) entity.HealthRecord {
	if r.SharedWith != nil {
		r.SharedWith = append([]entity.SharedAccess{}, r.SharedWith...)
	}
	r.Signature = cloneString(r.Signature)
	r.VerifiedBy = cloneString(r.VerifiedBy)
	if r.VerifiedAt != nil {
		t := *r.VerifiedAt
		r.VerifiedAt = &t
	}
	return r
}
