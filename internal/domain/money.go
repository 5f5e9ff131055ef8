// Package domain holds the pure data types and value-level helpers shared
// by the copy-trading engine: decimal arithmetic, slug normalization,
// configuration, movement records, and runtime state.
package domain

import "github.com/shopspring/decimal"

// Zero is the additive identity, kept as a package-level value to avoid
// re-allocating it at every call site.
var Zero = decimal.Zero

// ClampNonNegative returns d if d > 0, else Zero. Used wherever the spec
// says "available = max(x, 0)".
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return Zero
	}
	return d
}

// Min3 returns the smallest of three decimals.
func Min3(a, b, c decimal.Decimal) decimal.Decimal {
	m := a
	if b.LessThan(m) {
		m = b
	}
	if c.LessThan(m) {
		m = c
	}
	return m
}

// PctOf returns base * pct / 100.
func PctOf(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}
