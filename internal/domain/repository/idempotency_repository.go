package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
)

// IdempotencyRepository looks up generate keys. Keys are written by
// InvoiceRepository.Create together with their invoice.
type IdempotencyRepository interface {
	// Find returns the live record of key for userID, or nil.
	Find(ctx context.Context, userID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	// Purge deletes records that expired before now and reports how many.
	Purge(ctx context.Context, now time.Time) (int64, error)
}
