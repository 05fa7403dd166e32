package repository

import (
	"context"
	"time"

	"github.com/oksasatya/doitnow-api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Delete(ctx context.Context, id string) error
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	ClearOTP(ctx context.Context, id string) error

	// ApplyRedemption moves points_spent from expectedSpent to
	// expectedSpent+amount and records the redemption atomically. It returns
	// ErrStaleSpent when points_spent no longer equals expectedSpent.
	ApplyRedemption(ctx context.Context, userID string, expectedSpent, amount int64) (*entity.Redemption, error)
	ListRedemptions(ctx context.Context, userID string, limit int) ([]entity.Redemption, error)
}
