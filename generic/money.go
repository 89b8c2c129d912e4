package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Rounding rules used for every withheld amount
// =============================================================================

var (
	half    = decimal.NewFromFloat(0.5)
	hundred = decimal.NewFromInt(100)
)

// Round applies the tax authority's rounding rule: floor(x)+1 when the
// fractional part is at least 0.5, floor(x) otherwise.
//
// It differs from symmetric rounding at negative values (Round(-0.5) == 0)
// and from banker's rounding at exact halves (Round(2.5) == 3).
func Round(x decimal.Decimal) decimal.Decimal {
	floor := x.Floor()
	if x.Sub(floor).GreaterThanOrEqual(half) {
		return floor.Add(decimal.NewFromInt(1))
	}
	return floor
}

// DiscardCents drops the cents of x without rounding.
func DiscardCents(x decimal.Decimal) decimal.Decimal {
	return x.Floor()
}

// RoundCents rounds x to whole cents, half away from zero.
func RoundCents(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// Cents returns the fractional part of x as a two digit cents value,
// e.g. 1000.33 -> 33.
func Cents(x decimal.Decimal) int64 {
	return x.Sub(x.Floor()).Mul(hundred).Round(0).IntPart()
}
