// Package decimal holds the cent rounding rules used for e-invoice amounts.
package decimal

import (
	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// FromFloat creates decimal from float with rounding to cents
func FromFloat(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Exact creates decimal from float without rounding
func Exact(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// LineNet computes units × unit price rounded to cents
func LineNet(units uint, unitPrice float64) decimal.Decimal {
	return Exact(unitPrice).Mul(decimal.NewFromInt(int64(units))).Round(2)
}

// LineTax computes net × rate rounded to cents.
// Rounding happens per line, before any accumulation.
func LineTax(net decimal.Decimal, rate float64) decimal.Decimal {
	if rate == 0 {
		return Zero
	}
	return net.Mul(Exact(rate)).Round(2)
}

// Percent converts a fractional rate to a whole percentage (0.19 -> 19)
func Percent(rate float64) int64 {
	return Exact(rate).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PercentExact converts a fractional rate to a percentage with two decimals (0.075 -> "7.50")
func PercentExact(rate float64) string {
	return Exact(rate).Mul(decimal.NewFromInt(100)).StringFixed(2)
}

// Amount formats a float as a fixed two-decimal amount ("18.98")
func Amount(v float64) string {
	return FromFloat(v).StringFixed(2)
}

// Fixed2 formats a decimal with exactly two decimals
func Fixed2(d decimal.Decimal) string {
	return d.StringFixed(2)
}
