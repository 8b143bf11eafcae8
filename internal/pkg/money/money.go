// Package money holds the fixed-point currency helpers shared by the domain
// and the persistence layer.
//
// Amounts are decimal.Decimal with two fractional digits everywhere in Go code
// and integer cents in storage, so cart subtotals, order totals and wallet
// arithmetic never drift apart.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept for every amount.
const Places = 2

// Zero is the zero amount.
var Zero = decimal.Zero

// Parse reads a textual amount such as "89.90". More than two fractional
// digits are rejected rather than silently rounded.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	if !d.Equal(d.Round(Places)) {
		return decimal.Zero, fmt.Errorf("money: %q has more than %d decimals", s, Places)
	}
	return d, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ToCents converts an amount to integer cents, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(Places).Shift(Places).IntPart()
}

// FromCents converts integer cents back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// LineTotal is unitPrice * quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Format renders an amount with exactly two decimals ("308.80").
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
