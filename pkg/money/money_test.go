package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound2HalfUp(t *testing.T) {
	cases := map[string]string{
		"0.015":  "0.02",
		"0.9045": "0.90",
		"0.125":  "0.13",
		"2.345":  "2.35",
		"2.344":  "2.34",
		"10":     "10.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, Round2(d(in)).StringFixed(2), in)
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, LineTotal(d("2.5"), d("10.00")).Equal(d("25.00")))
	assert.True(t, LineTotal(d("0.333"), d("3.33")).Equal(d("1.11")))
	assert.True(t, LineTotal(d("1.005"), d("1.00")).Equal(d("1.01")))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$25.00", Format(d("25")))
	assert.Equal(t, "$0.02", Format(d("0.015")))
	assert.Equal(t, "$1234567.10", Format(d("1234567.1")))
	assert.Equal(t, "17.00", Plain(d("17")))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2.5", FormatQuantity(d("2.500")))
	assert.Equal(t, "3", FormatQuantity(d("3")))
	assert.Equal(t, "0.125", FormatQuantity(d("0.125")))
}

func TestValidQuantity(t *testing.T) {
	assert.NoError(t, ValidQuantity(d("0.001")))
	assert.NoError(t, ValidQuantity(d("12.345")))
	assert.ErrorIs(t, ValidQuantity(d("0")), ErrNotPositive)
	assert.ErrorIs(t, ValidQuantity(d("-1")), ErrNotPositive)
	assert.ErrorIs(t, ValidQuantity(d("1.2345")), ErrTooPrecise)
}

func TestParse(t *testing.T) {
	v, err := Parse(" 12.50 ")
	require.NoError(t, err)
	assert.True(t, v.Equal(d("12.5")))

	for _, bad := range []string{"", "1e3", "1,5", "abc", "1 000"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}

	_, err = ParseQuantity("0")
	assert.ErrorIs(t, err, ErrNotPositive)
}

func TestApplyDiscount(t *testing.T) {
	assert.True(t, ApplyDiscount(d("20.00"), d("15")).Equal(d("17")))
	assert.True(t, ApplyDiscount(d("1.005"), d("10")).Equal(d("0.9045")))
	assert.True(t, ApplyDiscount(d("5"), d("100")).IsZero())
}
