// Package money holds the single rounding policy used for settlement amounts.
// All arithmetic is exact decimal; rounding happens only through RoundHalfUp
// and DivHalfUp.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StorageScale is the number of fractional digits persisted for amounts.
const StorageScale int32 = 2

// RoundHalfUp rounds value to scale fractional digits, ties away from zero.
func RoundHalfUp(value decimal.Decimal, scale int32) decimal.Decimal {
	return value.Round(scale)
}

// DivHalfUp returns a / b rounded half-up to scale digits without an
// intermediate inexact quotient. b must not be zero.
func DivHalfUp(a, b decimal.Decimal, scale int32) decimal.Decimal {
	return a.DivRound(b, scale)
}

// Sum adds values exactly; an empty input sums to zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// LineTotal is unitPrice × quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int64) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// Parse parses a decimal string such as "90909.00", ignoring surrounding
// whitespace.
func Parse(value string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(value))
}
