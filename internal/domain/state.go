package domain

import "github.com/shopspring/decimal"

// RuntimeState is the process-local, mutable copy-trading state. It must
// only ever be accessed while holding the owning Engine's mutex; see
// internal/application/copyengine.
type RuntimeState struct {
	Config                *CopyConfig
	Monitoring             bool
	CurrentPollIntervalMs  int64
	Warning                *string
	LastSeenHashes         map[string]struct{}
	SimulationTick         uint64
}

// NewRuntimeState returns an empty, unconfigured state.
func NewRuntimeState() *RuntimeState {
	return &RuntimeState{LastSeenHashes: make(map[string]struct{})}
}

// PlanResult is the pure output of the planner (internal/application/planner.Plan).
type PlanResult struct {
	ProportionalSize decimal.Decimal
	CappedSize       decimal.Decimal
	AvailableFunds   decimal.Decimal
	Reason           string
}
