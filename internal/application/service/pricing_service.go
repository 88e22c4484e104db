package service

import (
	"github.com/shopspring/decimal"

	"github.com/disfruleg/disfruleg-pos/internal/domain/entity"
	"github.com/disfruleg/disfruleg-pos/pkg/apperror"
	"github.com/disfruleg/disfruleg-pos/pkg/money"
)

var hundredPercent = decimal.NewFromInt(100)

// PricingService derives client prices from base prices and the client's
// group discount. It holds no state.
type PricingService struct{}

// NewPricingService creates a new pricing service
func NewPricingService() *PricingService {
	return &PricingService{}
}

// ValidateDiscount rejects discounts outside [0, 100].
func (s *PricingService) ValidateDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() || discount.GreaterThan(hundredPercent) {
		return apperror.ErrInvalidDiscount
	}
	return nil
}

// Price returns round(base x (1 - discount/100), 2). With no discount the
// base is only rounded to cents.
func (s *PricingService) Price(p entity.Product, discount decimal.Decimal) (entity.PricedProduct, error) {
	if err := s.ValidateDiscount(discount); err != nil {
		return entity.PricedProduct{}, err
	}
	if p.BasePrice.IsNegative() {
		return entity.PricedProduct{}, apperror.ErrInvalidPrice
	}

	unit := money.Round2(p.BasePrice)
	if !discount.IsZero() {
		unit = money.Round2(money.ApplyDiscount(p.BasePrice, discount))
	}

	return entity.PricedProduct{
		ProductID:       p.ID,
		Name:            p.Name,
		Unit:            p.Unit,
		BasePrice:       p.BasePrice,
		DiscountPercent: discount,
		UnitPrice:       unit,
		IsSpecial:       p.IsSpecial,
		Stock:           p.Stock,
	}, nil
}

// PriceCatalog prices every product, keeping input order.
func (s *PricingService) PriceCatalog(products []entity.Product, discount decimal.Decimal) ([]entity.PricedProduct, error) {
	out := make([]entity.PricedProduct, 0, len(products))
	for _, p := range products {
		priced, err := s.Price(p, discount)
		if err != nil {
			return nil, err
		}
		out = append(out, priced)
	}
	return out, nil
}
