package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// RiskLevel is a preset reserved for future planner tuning; it is not
// consulted by Plan() today.
type RiskLevel string

const (
	RiskConservative RiskLevel = "conservative"
	RiskBalanced      RiskLevel = "balanced"
	RiskAggressive    RiskLevel = "aggressive"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskConservative, RiskBalanced, RiskAggressive:
		return true
	default:
		return false
	}
}

const (
	// NormalPollFloorMs is the minimum poll interval in normal mode.
	NormalPollFloorMs = 500
	// RealtimePollFloorMs is the minimum poll interval in realtime or
	// simulation mode.
	RealtimePollFloorMs = 50
)

// CopyConfig is the process-wide copy-trading configuration, loaded at
// startup and replaced wholesale on reconfigure.
type CopyConfig struct {
	Leader               string          `json:"leader"`
	AllocatedFunds       decimal.Decimal `json:"allocated_funds"`
	MaxTradePct          decimal.Decimal `json:"max_trade_pct"`
	MaxTotalExposurePct  decimal.Decimal `json:"max_total_exposure_pct"`
	MinCopyUSD           decimal.Decimal `json:"min_copy_usd"`
	PollIntervalMs       int64           `json:"poll_interval_ms"`
	RiskLevel            RiskLevel       `json:"risk_level"`
	ExecuteOrders        bool            `json:"execute_orders"`
	RealtimeMode         bool            `json:"realtime_mode"`
	SimulationMode       bool            `json:"simulation_mode"`
}

// Validate checks the InvalidInput conditions the configure boundary
// must reject synchronously, before the config ever reaches the loop.
func (c CopyConfig) Validate() error {
	if !common.IsHexAddress(c.Leader) {
		return fmt.Errorf("invalid input: leader %q is not a valid address", c.Leader)
	}
	if c.AllocatedFunds.LessThanOrEqual(Zero) {
		return fmt.Errorf("invalid input: allocated_funds must be > 0")
	}
	for name, v := range map[string]decimal.Decimal{
		"max_trade_pct":          c.MaxTradePct,
		"max_total_exposure_pct": c.MaxTotalExposurePct,
	} {
		if v.LessThanOrEqual(Zero) || v.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("invalid input: %s must be in (0, 100]", name)
		}
	}
	if c.MinCopyUSD.IsNegative() {
		return fmt.Errorf("invalid input: min_copy_usd cannot be negative")
	}
	if c.PollIntervalMs <= 0 {
		return fmt.Errorf("invalid input: poll_interval_ms must be > 0")
	}
	if c.RealtimeMode && c.SimulationMode {
		return fmt.Errorf("invalid input: realtime_mode and simulation_mode are mutually exclusive")
	}
	if c.RiskLevel != "" && !c.RiskLevel.Valid() {
		return fmt.Errorf("invalid input: unknown risk_level %q", c.RiskLevel)
	}
	return nil
}

// NormalizedPollIntervalMs floors the configured poll interval to the
// mode-appropriate minimum.
func (c CopyConfig) NormalizedPollIntervalMs() int64 {
	floor := int64(NormalPollFloorMs)
	if c.RealtimeMode || c.SimulationMode {
		floor = RealtimePollFloorMs
	}
	if c.PollIntervalMs < floor {
		return floor
	}
	return c.PollIntervalMs
}

// StorageMode selects which append log a config maps to.
type StorageMode int

const (
	ModeReal StorageMode = iota
	ModeSimulation
)

func (m StorageMode) String() string {
	if m == ModeSimulation {
		return "simulacion"
	}
	return "real"
}

// Mode derives the storage mode from the config.
func (c CopyConfig) Mode() StorageMode {
	if c.SimulationMode {
		return ModeSimulation
	}
	return ModeReal
}
