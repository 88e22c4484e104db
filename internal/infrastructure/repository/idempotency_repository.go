package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	domainRepo "github.com/disfruleg/disfruleg-pos/internal/domain/repository"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) Find(ctx context.Context, userID uuid.UUID, key string) (*entity.IdempotencyKey, error) {
	var rec entity.IdempotencyKey
	err := r.db.WithContext(ctx).
		Where(&entity.IdempotencyKey{Key: key, UserID: userID}).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *idempotencyRepository) Purge(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&entity.IdempotencyKey{})
	return res.RowsAffected, res.Error
}
