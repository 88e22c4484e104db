package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
)

// UserRepository defines the interface for system user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entity.SystemUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.SystemUser, error)
	GetByUsername(ctx context.Context, username string) (*entity.SystemUser, error)
	// RecordFailure stores the failed attempt counter and optional lock.
	RecordFailure(ctx context.Context, id uuid.UUID, f LoginFailure) error
	// ResetFailures clears the counter and lock after a successful verify.
	ResetFailures(ctx context.Context, id uuid.UUID) error
}

// LoginFailure is the failure state written after a wrong password.
type LoginFailure struct {
	Attempts    int       // failures since WindowStart, this one included
	WindowStart time.Time // first failure of the current window
	At          time.Time
	LockedUntil *time.Time
}
