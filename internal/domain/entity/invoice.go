package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disfruleg/disfruleg-pos/pkg/money"
)

// Invoice is the persisted header of a generated receipt.
type Invoice struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date      time.Time `gorm:"not null;index" json:"date"`
	ClientID  uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Client *Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	User   *SystemUser   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Lines  []InvoiceLine `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "factura"
}

// Total is the sum of the rounded line totals.
func (i *Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for idx := range i.Lines {
		total = total.Add(i.Lines[idx].LineTotal())
	}
	return total
}

// InvoiceLine is one product row of an invoice.
type InvoiceLine struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID uint            `gorm:"not null;index" json:"invoice_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`

	// Relationships
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName returns the table name for the InvoiceLine model
func (InvoiceLine) TableName() string {
	return "detalle_factura"
}

// LineTotal returns round(quantity x unit_price, 2).
func (l *InvoiceLine) LineTotal() decimal.Decimal {
	return money.LineTotal(l.Quantity, l.UnitPrice)
}
