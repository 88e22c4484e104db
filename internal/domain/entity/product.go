package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog item sold by weight or piece.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null;index" json:"name"`
	Unit      string          `gorm:"size:20;not null;default:'kg'" json:"unit"`
	BasePrice decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"base_price"`
	// Stock is informational; invoices never decrement it.
	Stock     decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"stock"`
	IsSpecial bool            `gorm:"not null;default:false" json:"is_special"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "producto"
}
