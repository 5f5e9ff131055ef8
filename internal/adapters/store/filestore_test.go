package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vngelio/polystation/internal/domain"
)

func TestFileStore_AppendHasAndReload(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	require.NoError(t, err)

	rec := domain.MovementRecord{
		MovementID:  "tx-1",
		Market:      "btc-updown-1h",
		Timestamp:   "2026-07-30T10:00:00Z",
		CopiedValue: decimal.RequireFromString("25"),
	}
	id, err := fs.Append(domain.ModeSimulation, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.True(t, fs.Has(domain.ModeSimulation, "tx-1"))
	assert.False(t, fs.Has(domain.ModeReal, "tx-1"))

	reopened, err := New(dir)
	require.NoError(t, err)
	assert.True(t, reopened.Has(domain.ModeSimulation, "tx-1"))
	all, err := reopened.All(domain.ModeSimulation)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].CopiedValue.Equal(decimal.RequireFromString("25")))
}

func TestFileStore_SettleMarksSettledAndPersists(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	require.NoError(t, err)

	_, err = fs.Append(domain.ModeReal, domain.MovementRecord{MovementID: "tx-2", Market: "btc-updown-1h"})
	require.NoError(t, err)

	err = fs.Settle(domain.ModeReal, "tx-2", decimal.RequireFromString("3.5"))
	require.NoError(t, err)

	unsettled, err := fs.Unsettled(domain.ModeReal)
	require.NoError(t, err)
	assert.Len(t, unsettled, 0)

	reopened, err := New(dir)
	require.NoError(t, err)
	all, err := reopened.All(domain.ModeReal)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Settled)
	assert.True(t, all[0].PnL.Equal(decimal.RequireFromString("3.5")))
}

func TestFileStore_SettleUnknownMovementErrors(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	require.NoError(t, err)
	err = fs.Settle(domain.ModeReal, "does-not-exist", decimal.Zero)
	require.Error(t, err)
}

func TestFileStore_AppendSettlementLogWritesLine(t *testing.T) {
	dir := t.TempDir()
	fs, err := New(dir)
	require.NoError(t, err)
	rec := domain.MovementRecord{
		ID:                   1,
		MovementID:           "tx-3",
		Market:               "btc-updown-1h",
		Timestamp:            "2026-07-30T10:00:00Z",
		CopySide:             domain.SideBuy,
		Outcome:              "Yes",
		LeaderPrice:          decimal.RequireFromString("0.52"),
		SimulatedCopyPrice:   decimal.RequireFromString("0.53"),
		Quantity:             decimal.RequireFromString("19.23"),
		CopiedValue:          decimal.RequireFromString("10"),
		EstimatedTotalFeeUSD: decimal.RequireFromString("0.14"),
		PnL:                  decimal.RequireFromString("1"),
	}
	require.NoError(t, fs.AppendSettlementLog(domain.ModeReal, rec))

	b, err := os.ReadFile(filepath.Join(dir, "settlements_real.log"))
	require.NoError(t, err)
	line := strings.TrimRight(string(b), "\n")
	fields := strings.Split(line, "\t")
	require.Len(t, fields, 12)
	assert.Equal(t, "mode=real", fields[1])
	assert.Equal(t, "movement_id=tx-3", fields[2])
	assert.Equal(t, "market=btc-updown-1h", fields[3])
	assert.Equal(t, "side=buy", fields[4])
	assert.Equal(t, "outcome=Yes", fields[5])
	assert.Equal(t, "leader_price=0.52", fields[6])
	assert.Equal(t, "simulated_copy_price=0.53", fields[7])
	assert.Equal(t, "quantity=19.23", fields[8])
	assert.Equal(t, "copied_value=10", fields[9])
	assert.Equal(t, "estimated_total_fee_usd=0.14", fields[10])
	assert.Equal(t, "pnl=1", fields[11])
	assert.True(t, strings.HasPrefix(fields[0], "20"), "expected rfc3339 timestamp, got %q", fields[0])
}
