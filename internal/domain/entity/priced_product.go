package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedProduct is a product priced for one client. It is not persisted.
type PricedProduct struct {
	ProductID       uuid.UUID       `json:"product_id"`
	Name            string          `json:"name"`
	Unit            string          `json:"unit"`
	BasePrice       decimal.Decimal `json:"base_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	IsSpecial       bool            `json:"is_special"`
	Stock           decimal.Decimal `json:"stock"`
}
