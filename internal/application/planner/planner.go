// Package planner computes the proportional copy size for a detected
// leader trade, pure and deterministic: no I/O, no clock, no mutable
// state beyond its arguments.
package planner

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/domain"
)

const (
	reasonBelowMinimum    = "below minimum copy threshold"
	reasonNoExposure      = "no exposure available"
	reasonCappedByTrade   = "capped by max_trade_pct"
	reasonCappedByTotal   = "capped by max_total_exposure_pct"
	reasonOK              = "ok"
)

// Plan computes the proportional copy size for one leader movement.
//
//	ratio        = allocated_funds / leader_positions_value
//	proportional = leader_movement_value * ratio
//	max_trade    = allocated_funds * max_trade_pct / 100
//	max_total    = allocated_funds * max_total_exposure_pct / 100
//	used         = sum(copied_value) over unsettled movements
//	available    = max(max_total - used, 0)
//	capped       = min(proportional, max_trade, available)
//
// Reason codes are evaluated in priority order: below-minimum first (in
// which case capped_size is forced to 0), then no-exposure, then the two
// cap reasons, else "ok".
func Plan(cfg domain.CopyConfig, unsettled []domain.MovementRecord, leaderPositionsValue, leaderMovementValue decimal.Decimal) (domain.PlanResult, error) {
	if leaderPositionsValue.LessThanOrEqual(domain.Zero) {
		return domain.PlanResult{}, fmt.Errorf("invalid input: leader_positions_value must be > 0")
	}

	ratio := cfg.AllocatedFunds.Div(leaderPositionsValue)
	proportional := leaderMovementValue.Mul(ratio)

	maxTrade := domain.PctOf(cfg.AllocatedFunds, cfg.MaxTradePct)
	maxTotal := domain.PctOf(cfg.AllocatedFunds, cfg.MaxTotalExposurePct)

	used := decimal.Zero
	for _, m := range unsettled {
		used = used.Add(m.CopiedValue)
	}
	available := domain.ClampNonNegative(maxTotal.Sub(used))

	capped := domain.Min3(proportional, maxTrade, available)

	var reason string
	switch {
	case capped.LessThan(cfg.MinCopyUSD):
		reason = reasonBelowMinimum
	case available.LessThanOrEqual(domain.Zero):
		reason = reasonNoExposure
	case proportional.GreaterThan(maxTrade):
		reason = reasonCappedByTrade
	case proportional.GreaterThan(available):
		reason = reasonCappedByTotal
	default:
		reason = reasonOK
	}

	finalCapped := capped
	if reason == reasonBelowMinimum {
		finalCapped = decimal.Zero
	}

	return domain.PlanResult{
		ProportionalSize: proportional,
		CappedSize:       finalCapped,
		AvailableFunds:   available,
		Reason:           reason,
	}, nil
}
