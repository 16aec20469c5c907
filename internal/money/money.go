package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid money amount")

// Scale is the number of fractional digits every stored amount carries.
const Scale = 2

// Parse converts a user-entered decimal string (like "12.34" or "-5") into
// an amount rounded to two fractional digits. An empty string parses to zero,
// matching the opening-balance default.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Round(d), nil
}

// Round normalizes an amount to the storage scale (half-up).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Format renders an amount with exactly two fractional digits, e.g. "-123.40".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
