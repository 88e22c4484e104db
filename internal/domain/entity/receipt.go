package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLine is one printable row of a receipt.
type ReceiptLine struct {
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
	IsSpecial bool            `json:"is_special"`
}

// Receipt is a value object composed from a frozen cart or a persisted
// invoice. It is NOT a database entity; both the PDF and the thermal ticket
// are rendered from it.
type Receipt struct {
	BusinessName string          `json:"business_name"`
	InvoiceID    uint            `json:"invoice_id"`
	Date         time.Time       `json:"date"`
	ClientName   string          `json:"client_name"`
	Operator     string          `json:"operator,omitempty"`
	Lines        []ReceiptLine   `json:"lines"`
	Total        decimal.Decimal `json:"total"`
}
