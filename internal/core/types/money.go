// Package types provides shared value types.
package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a price or a monetary total.
// Stored as NUMERIC(15,2) and serialised as a JSON string.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept for prices.
const MoneyScale int32 = 2

// ParseMoney parses a non-negative price.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse money %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("money must not be negative: %s", s)
	}
	return d.Round(MoneyScale), nil
}

// MustMoney parses s and panics on error. Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Extend returns price multiplied by a piece count.
func Extend(price Money, pieces int64) Money {
	return price.Mul(decimal.NewFromInt(pieces)).Round(MoneyScale)
}
