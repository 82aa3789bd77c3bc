package repository

import (
	"context"
	"time"

	"github.com/JovenGabriel/users-api/internal/domain"
)

// UserRepository exposes persistence for users and their phones. Lookups
// that find nothing return an error wrapping domain.ErrNotFound. Create
// relies on the store's unique email constraint, reported as
// domain.ErrEmailTaken, to close the check-then-insert race.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	UpdateSession(ctx context.Context, id int64, token string, lastLogin time.Time) (domain.User, error)
}

// AttemptStore counts failed login attempts per key within a rolling window.
type AttemptStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
