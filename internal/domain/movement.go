package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the copy-side direction of a movement.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MovementRecord is one durable row per observed-and-planned leader trade.
type MovementRecord struct {
	ID                    int64           `json:"id"`
	MovementID            string          `json:"movement_id"`
	Market                string          `json:"market"`
	Timestamp             string          `json:"timestamp"`
	LeaderValue           decimal.Decimal `json:"leader_value"`
	LeaderPrice           decimal.Decimal `json:"leader_price"`
	Quantity              decimal.Decimal `json:"quantity"`
	CopiedValue           decimal.Decimal `json:"copied_value"`
	SimulatedCopyPrice     decimal.Decimal `json:"simulated_copy_price"`
	CopySide              Side            `json:"copy_side"`
	Outcome               string          `json:"outcome"`
	DiffPct               decimal.Decimal `json:"diff_pct"`
	EstimatedTotalFeeUSD   decimal.Decimal `json:"estimated_total_fee_usd"`
	Settled               bool            `json:"settled"`
	PnL                   decimal.Decimal `json:"pnl"`
}

// MovementIDFor namespaces a leader transaction hash by storage mode, so
// real and simulation movements never collide.
func MovementIDFor(mode StorageMode, txHash string) string {
	if mode == ModeSimulation {
		return "sim-" + txHash
	}
	return txHash
}

// Day returns the movement's creation day in the "YYYY-MM-DD" form the
// PnL series are keyed by. Falls back to "unknown" if timestamp is too
// short to slice, mirroring the original's unwrap_or fallback.
func (m MovementRecord) Day() string {
	if len(m.Timestamp) < 10 {
		return "unknown"
	}
	return m.Timestamp[:10]
}

// EpochSeconds parses the RFC-3339 timestamp to epoch seconds. Returns
// false if the timestamp cannot be parsed.
func (m MovementRecord) EpochSeconds() (int64, bool) {
	t, err := time.Parse(time.RFC3339, m.Timestamp)
	if err != nil {
		return 0, false
	}
	return t.Unix(), true
}
