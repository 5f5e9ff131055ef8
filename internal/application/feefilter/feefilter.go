// Package feefilter rejects copies on fast-resolving markets whose
// estimated fees would erode the edge before the position can even close.
package feefilter

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FastMarketFeeBps is the taker fee, in basis points, applied to the
// short-horizon "updown" markets that resolve in minutes rather than
// days.
var FastMarketFeeBps = decimal.NewFromInt(70)

// feeBuffer is the minimum expected loss buffer versus a winning 1.0
// outcome the max tolerable round-trip fee is measured against; kept
// literal rather than configurable.
var feeBuffer = decimal.NewFromFloat(0.1)

var fastMarketSubstrings = []string{"-updown-5m", "-updown-15m"}

// IsFastMarket reports whether slug names one of the short-horizon
// "updown" markets subject to the elevated fee estimate.
func IsFastMarket(slug string) bool {
	for _, sub := range fastMarketSubstrings {
		if strings.Contains(slug, sub) {
			return true
		}
	}
	return false
}

// EntryFeeUSD returns the estimated single-leg taker fee for a copy of
// the given notional value, on the given slug. Non-fast markets are
// assumed fee-free for estimation purposes; the venue's real maker/taker
// schedule is not modeled here.
func EntryFeeUSD(slug string, notional decimal.Decimal) decimal.Decimal {
	if !IsFastMarket(slug) {
		return decimal.Zero
	}
	return notional.Mul(FastMarketFeeBps).Div(decimal.NewFromInt(10000))
}

// RoundTripFeeUSD returns the estimated entry+exit taker fee — the figure
// a movement records as estimated_total_fee_usd.
func RoundTripFeeUSD(slug string, notional decimal.Decimal) decimal.Decimal {
	return EntryFeeUSD(slug, notional).Mul(decimal.NewFromInt(2))
}

// PassesFilter reports whether a copy of copiedValue notional on slug
// should proceed, and the reason: "ok" when it may, otherwise why not.
//
// A non-positive copiedValue is rejected as "invalid-notional" on any
// market. Otherwise non-fast markets always pass. Fast markets are rejected as
// "fee-negative" when the round-trip fee would exceed the notional's
// gross margin after the 0.1 minimum-loss buffer: entry = copied_value *
// fee_rate, round_trip = 2*entry, max_gross = copied_value * (1 - 0.1),
// max_net = max_gross - round_trip; max_net <= 0 rejects.
func PassesFilter(slug string, copiedValue decimal.Decimal) (bool, string) {
	if copiedValue.LessThanOrEqual(decimal.Zero) {
		return false, "invalid-notional"
	}
	if !IsFastMarket(slug) {
		return true, "ok"
	}

	entry := EntryFeeUSD(slug, copiedValue)
	roundTrip := entry.Mul(decimal.NewFromInt(2))
	maxGross := copiedValue.Mul(decimal.NewFromInt(1).Sub(feeBuffer))
	maxNet := maxGross.Sub(roundTrip)
	if maxNet.LessThanOrEqual(decimal.Zero) {
		return false, "fee-negative"
	}
	return true, "ok"
}
