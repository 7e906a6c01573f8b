package repository

import (
	"context"

	"health-record-vault/internal/domain/entity"

	"github.com/google/uuid"
)

// UserRepository finders return nil, nil when no row matches.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id int64) (*entity.User, error)
	FindByUUID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByPatientCode(ctx context.Context, code string) (*entity.User, error)
	UpdateProfile(ctx context.Context, user *entity.User) error
	// SetPublicKey stores key only if the user has none yet and reports
	// the number of rows changed.
	SetPublicKey(ctx context.Context, id int64, publicKey string) (int64, error)
}
