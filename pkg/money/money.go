package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Scales used across the receipt engine.
const (
	MoneyScale    int32 = 2
	QuantityScale int32 = 3
)

var (
	// ErrNotPositive is returned for quantities that are zero or negative.
	ErrNotPositive = errors.New("value must be greater than zero")
	// ErrTooPrecise is returned for quantities with more than three fractional digits.
	ErrTooPrecise = errors.New("value has too many decimal places")
	// ErrMalformed is returned when user input is not a plain decimal number.
	ErrMalformed = errors.New("value is not a valid decimal number")
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds v to two fractional digits, half away from zero.
// Every monetary value in the engine is non-negative, so this is HALF_UP.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(MoneyScale)
}

// LineTotal returns round(qty x unitPrice, 2).
func LineTotal(qty, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(qty.Mul(unitPrice))
}

// ApplyDiscount returns base x (1 - pct/100) without rounding.
func ApplyDiscount(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(hundred.Sub(pct)).Div(hundred)
}

// Format renders v as "$" followed by exactly two decimals. The separator is
// always '.', independent of the process locale.
func Format(v decimal.Decimal) string {
	return "$" + Round2(v).StringFixed(MoneyScale)
}

// Plain renders v with two decimals and no currency symbol.
func Plain(v decimal.Decimal) string {
	return Round2(v).StringFixed(MoneyScale)
}

// FormatQuantity renders a quantity without trailing zeros, e.g. "2.5", "3".
func FormatQuantity(q decimal.Decimal) string {
	return q.Round(QuantityScale).String()
}

// ValidQuantity checks that q is positive with at most three fractional digits.
func ValidQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return ErrNotPositive
	}
	if !q.Equal(q.Round(QuantityScale)) {
		return ErrTooPrecise
	}
	return nil
}

// Parse reads a plain decimal string ("12", "12.5", "0.015"). Exponents,
// thousands separators and commas are rejected.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "eE,_ ") {
		return decimal.Zero, ErrMalformed
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrMalformed
	}
	return d, nil
}

// ParseQuantity parses s and validates it as a cart quantity.
func ParseQuantity(s string) (decimal.Decimal, error) {
	q, err := Parse(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := ValidQuantity(q); err != nil {
		return decimal.Zero, err
	}
	return q, nil
}

// Sum adds the values exactly.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
