package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyTTL is how long a generate key maps to its invoice.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyKey records which invoice a client-supplied key produced.
// It is written in the same transaction as the invoice.
type IdempotencyKey struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key         string    `gorm:"size:255;not null;uniqueIndex:idx_idem_key_user"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idem_key_user"`
	InvoiceID   uint      `gorm:"not null"`
	RequestHash string    `gorm:"size:64"` // SHA256 of the frozen cart
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	ExpiresAt   time.Time `gorm:"not null;index"`
}

func (i *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for IdempotencyKey
func (IdempotencyKey) TableName() string {
	return "factura_idempotencia"
}

// IsExpired checks if the idempotency key has expired at now
func (i *IdempotencyKey) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
