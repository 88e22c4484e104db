package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ClientGroup assigns a discount percentage to every client in it.
type ClientGroup struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Key             string          `gorm:"size:50;unique;not null" json:"key"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (g *ClientGroup) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

func (ClientGroup) TableName() string {
	return "grupo"
}

// Client is a wholesale buyer receipts are issued to.
type Client struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name      string     `gorm:"size:255;not null;index" json:"name"`
	Phone     *string    `gorm:"size:50" json:"phone,omitempty"`
	Email     *string    `gorm:"size:255" json:"email,omitempty"`
	Type      *string    `gorm:"size:50" json:"type,omitempty"`
	GroupID   *uuid.UUID `gorm:"type:uuid;index" json:"group_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Relationships
	Group *ClientGroup `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

// BeforeCreate generates a UUID before creating a new client
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "cliente"
}
