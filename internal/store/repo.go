package store

import (
	"context"
	"errors"

	"github.com/finnai/digest-bot/internal/domain"
)

// ErrNotFound is returned when a queried user does not exist.
var ErrNotFound = errors.New("user not found")

// Repo defines storage operations on the user directory. The notification
// engine only reads; UpsertUser exists for the seeding tool and the
// (external) settings surface.
type Repo interface {
	// ListEligible returns every user with the digest flag enabled.
	// No other filtering: deciding whether it is a user's trigger minute
	// is the evaluator's job, not the directory's.
	ListEligible(ctx context.Context) ([]domain.User, error)
	// GetUser resolves one user by id, or ErrNotFound.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpsertUser(ctx context.Context, u *domain.User) error
	Close() error
}
