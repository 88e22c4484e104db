package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	domainRepo "github.com/disfruleg/disfruleg-pos/internal/domain/repository"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.SystemUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.SystemUser, error) {
	var user entity.SystemUser
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.SystemUser, error) {
	var user entity.SystemUser
	err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) RecordFailure(ctx context.Context, id uuid.UUID, f domainRepo.LoginFailure) error {
	return r.db.WithContext(ctx).Model(&entity.SystemUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_attempts": f.Attempts,
			"first_failed_at": f.WindowStart,
			"last_failed_at":  f.At,
			"locked_until":    f.LockedUntil,
		}).Error
}

func (r *userRepository) ResetFailures(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&entity.SystemUser{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_attempts": 0,
			"first_failed_at": nil,
			"last_failed_at":  nil,
			"locked_until":    nil,
		}).Error
}
