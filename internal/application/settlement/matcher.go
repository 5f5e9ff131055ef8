// Package settlement matches venue-reported closed positions against the
// engine's own unsettled movement log, assigning realized PnL back to the
// movement(s) that produced it.
package settlement

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/domain"
	"github.com/vngelio/polystation/internal/ports"
)

// Match is one movement paired with the pnl to settle it with.
type Match struct {
	MovementID string
	PnL        decimal.Decimal
}

// roiEntry is one closed position's ROI, queued under both its raw and
// normalized slug so matching can look it up either way. The same entry is
// shared (by pointer) between both queues so a claim made through one key
// is visible through the other — a closure settles at most one movement.
type roiEntry struct {
	timestamp int64
	roi       decimal.Decimal
	claimed   bool
}

// ComputeMatches runs the FIFO-by-slug settlement algorithm against a
// snapshot of unsettled movements and returns the settlements to apply.
// It does not mutate movements or talk to any store; Settle wraps it with
// the persistence side effects.
//
// Preprocessing: closures are sorted ascending by timestamp (0 = unknown,
// always-eligible). Each closure with total_bought > 0 contributes
// roi = realized_pnl / total_bought, enqueued in FIFO order under both
// its raw slug and its normalized slug (§4.A); total_bought <= 0 closures
// are skipped with a debug-level log line — no reliable basis for a pnl
// share.
//
// Matching: movements are visited in stable order. For each, a ROI is
// popped from the queue keyed by the movement's own raw slug, falling
// back to the normalized-slug queue if empty. Popping discards (without
// matching) any queue entries whose own timestamp is nonzero and older
// than the movement's timestamp — a closure that happened before the
// copy was even placed cannot attribute to it. The first entry that
// survives the discard is matched and removed; at most one movement
// claims a given closure.
func ComputeMatches(movements []domain.MovementRecord, closures []ports.ClosedPosition) []Match {
	sorted := make([]ports.ClosedPosition, len(closures))
	copy(sorted, closures)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	rawQueues := make(map[string][]*roiEntry)
	normQueues := make(map[string][]*roiEntry)
	for _, c := range sorted {
		if c.TotalBought.LessThanOrEqual(domain.Zero) {
			slog.Debug("settlement: skipping closed position with non-positive total_bought", "slug", c.Slug, "timestamp", c.Timestamp)
			continue
		}
		entry := &roiEntry{timestamp: c.Timestamp, roi: c.RealizedPnL.Div(c.TotalBought)}
		rawQueues[c.Slug] = append(rawQueues[c.Slug], entry)
		normQueues[domain.NormalizeSlug(c.Slug)] = append(normQueues[domain.NormalizeSlug(c.Slug)], entry)
	}

	var out []Match
	for _, m := range movements {
		if m.Settled {
			continue
		}
		ts, ok := m.EpochSeconds()
		if !ok {
			continue
		}
		entry, found := popEligible(rawQueues, m.Market, ts)
		if !found {
			entry, found = popEligible(normQueues, domain.NormalizeSlug(m.Market), ts)
		}
		if !found {
			continue
		}
		out = append(out, Match{MovementID: m.MovementID, PnL: m.CopiedValue.Mul(entry.roi)})
	}

	return out
}

// popEligible pops and returns the first queue entry under key that is
// eligible for movementTs, permanently discarding any already-claimed or
// stale entries it skips over along the way. Entries are shared by pointer
// with the counterpart queue, so claiming one here also removes it there.
func popEligible(queues map[string][]*roiEntry, key string, movementTs int64) (*roiEntry, bool) {
	q := queues[key]
	for i, entry := range q {
		if entry.claimed {
			continue
		}
		if entry.timestamp > 0 && entry.timestamp < movementTs {
			continue
		}
		entry.claimed = true
		queues[key] = q[i+1:]
		return entry, true
	}
	queues[key] = nil
	return nil, false
}

// Settle fetches the unsettled movements for mode, computes matches
// against closures, and persists each settlement (marking the movement
// settled and appending a settlement log line) via store.
func Settle(store ports.Store, mode domain.StorageMode, closures []ports.ClosedPosition) (int, error) {
	unsettled, err := store.Unsettled(mode)
	if err != nil {
		return 0, err
	}

	matches := ComputeMatches(unsettled, closures)
	byID := make(map[string]domain.MovementRecord, len(unsettled))
	for _, m := range unsettled {
		byID[m.MovementID] = m
	}

	for _, match := range matches {
		if err := store.Settle(mode, match.MovementID, match.PnL); err != nil {
			return 0, err
		}
		rec := byID[match.MovementID]
		rec.Settled = true
		rec.PnL = match.PnL
		if err := store.AppendSettlementLog(mode, rec); err != nil {
			return 0, err
		}
	}

	return len(matches), nil
}
