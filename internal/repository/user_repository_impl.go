package repository

import (
	"context"

	"health-record-vault/internal/domain/entity"
	domainRepo "health-record-vault/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByUUID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, "uuid = ?", id)
}

// FindByUsername matches case-sensitively; usernames are compared as stored.
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) FindByPatientCode(ctx context.Context, code string) (*entity.User, error) {
	return r.findOne(ctx, "patient_code = ?", code)
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.User, error) {
	return withReadRetry(ctx, func() (*entity.User, error) {
		var user entity.User
		err := r.db.WithContext(ctx).Preload("Role").Where(query, args...).First(&user).Error
		return notFoundAsNil(&user, err)
	})
}

// UpdateProfile writes only the self-service profile columns.
func (r *userRepository) UpdateProfile(ctx context.Context, user *entity.User) error {
	return r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", user.ID).
		Select("emergency_contacts", "blood_type", "allergies", "gp_username", "updated_at").
		Updates(user).Error
}

// SetPublicKey only writes when no key exists (prevents re-keying races).
func (r *userRepository) SetPublicKey(ctx context.Context, id int64, publicKey string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ? AND (public_key IS NULL OR public_key = '')", id).
		Update("public_key", publicKey)
	return result.RowsAffected, result.Error
}
