// Package copyengine drives the copy-trading monitor loop: polling the
// leader, planning and (optionally) placing the follower's mirrored
// order, and recording the result.
//
// A trade's hash enters the in-memory seen set before it is copied, so a
// trade whose copy fails (for example, a rejected order) is not retried
// until the process restarts.
package copyengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/application/feefilter"
	"github.com/vngelio/polystation/internal/application/liquidity"
	"github.com/vngelio/polystation/internal/application/planner"
	"github.com/vngelio/polystation/internal/application/settlement"
	"github.com/vngelio/polystation/internal/domain"
	"github.com/vngelio/polystation/internal/metrics"
	"github.com/vngelio/polystation/internal/ports"
)

const (
	// fetchTimeout bounds each outbound trades/closed-positions fetch so a
	// slow venue can't stall a whole monitor cycle.
	fetchTimeout = 15 * time.Second

	tradesLimit          = 20
	closedPositionsLimit = 50

	// rate-limit poll-interval backoff: bump by 250ms, floor 500ms.
	rateLimitBackoffMs = 250
	rateLimitFloorMs   = 500
)

// rateLimitSubstrings are the case-insensitive markers a venue error
// message carries when it means "back off your poll rate" rather than a
// plain transient failure.
var rateLimitSubstrings = []string{"429", "too many", "rate limit"}

func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, sub := range rateLimitSubstrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// CycleResult summarizes one RunOnce pass, returned for logging.
type CycleResult struct {
	TradesSeen    int
	NewCopies     int
	Skipped       int
	Settled       int
	Warnings      []string
	StartedAt     time.Time
	Duration      time.Duration
}

// Engine holds the runtime state and collaborators for one leader/follower
// pair. All state mutation happens under mu; mu is never held across I/O.
type Engine struct {
	venue  ports.VenueClient
	signer ports.Signer
	store  ports.Store
	events EventLogger

	mu    sync.Mutex
	state *domain.RuntimeState
}

// New wires an Engine around its collaborators and an initial config.
func New(venue ports.VenueClient, signer ports.Signer, store ports.Store, events EventLogger, cfg domain.CopyConfig) *Engine {
	state := domain.NewRuntimeState()
	state.Config = &cfg
	state.CurrentPollIntervalMs = cfg.NormalizedPollIntervalMs()
	return &Engine{venue: venue, signer: signer, store: store, events: events, state: state}
}

// Snapshot returns a copy of the current runtime state, safe to read
// without holding the engine's lock.
func (e *Engine) Snapshot() domain.RuntimeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := *e.state.Config
	hashes := make(map[string]struct{}, len(e.state.LastSeenHashes))
	for k := range e.state.LastSeenHashes {
		hashes[k] = struct{}{}
	}
	return domain.RuntimeState{
		Config:                &cfg,
		Monitoring:            e.state.Monitoring,
		CurrentPollIntervalMs: e.state.CurrentPollIntervalMs,
		Warning:               e.state.Warning,
		LastSeenHashes:        hashes,
		SimulationTick:        e.state.SimulationTick,
	}
}

// SetMonitoring toggles the monitor loop on or off.
func (e *Engine) SetMonitoring(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Monitoring = on
}

// Configure validates cfg, normalizes its poll interval, and swaps it in
// as the engine's live configuration, returning the normalized copy for
// the caller to persist. The next RunOnce call picks it up; in-flight
// cycles keep running against the config they already snapshotted.
func (e *Engine) Configure(cfg domain.CopyConfig) (domain.CopyConfig, error) {
	if err := cfg.Validate(); err != nil {
		return domain.CopyConfig{}, err
	}
	cfg.PollIntervalMs = cfg.NormalizedPollIntervalMs()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Config = &cfg
	e.state.CurrentPollIntervalMs = cfg.PollIntervalMs
	return cfg, nil
}

// RunOnce executes a single monitor cycle:
//
//  1. resolve the leader's total positions value (for the planner's
//     ratio); a fetch failure falls back to 1.0 rather than aborting
//  2. resolve the settlement user (the follower wallet when orders are
//     being executed and a signer is wired, else the leader itself)
//  3. fetch that user's closed positions (15s timeout) and run a
//     settlement pass against them
//  4. fetch the leader's recent trades (15s timeout); a rate-limit error
//     backs off the poll interval
//  5. drop trades already recorded (by transaction hash)
//  6. for each new trade: normalize its market slug, compute the
//     proportional capped copy size, run the fast-market fee filter,
//     and, only when execute_orders is set outside simulation mode,
//     estimate the fill price by walking the token's order book, build
//     and sign the mirrored order, and submit it; then record the
//     movement
//
// Each upstream fetch fails independently per spec: a trades-fetch error
// never prevents the settlement pass from running, and vice versa.
func (e *Engine) RunOnce(ctx context.Context) (CycleResult, error) {
	started := time.Now()
	result := CycleResult{StartedAt: started}
	metrics.CyclesTotal.Inc()

	cfg, mode := e.configSnapshot()

	leaderValue, err := e.venue.Value(ctx, cfg.Leader)
	if err != nil {
		leaderValue = decimal.NewFromInt(1)
		result.Warnings = append(result.Warnings, fmt.Sprintf("fetch leader value: %v (defaulted to 1.0)", err))
	}

	settlementUser := e.settlementUser(cfg)

	closuresCtx, cancelClosures := context.WithTimeout(ctx, fetchTimeout)
	closures, err := e.venue.ClosedPositions(closuresCtx, settlementUser, closedPositionsLimit)
	cancelClosures()
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("fetch closed positions: %v", err))
	} else {
		settledCount, err := settlement.Settle(e.store, mode, closures)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("settle: %v", err))
		}
		result.Settled = settledCount
		metrics.SettledTotal.Add(float64(settledCount))
	}
	if unsettled, err := e.store.Unsettled(mode); err == nil {
		exposure := decimal.Zero
		for _, m := range unsettled {
			exposure = exposure.Add(m.CopiedValue)
		}
		metrics.ExposureUSD.Set(exposure.InexactFloat64())
	}

	tradesCtx, cancelTrades := context.WithTimeout(ctx, fetchTimeout)
	trades, err := e.venue.Trades(tradesCtx, cfg.Leader, tradesLimit)
	cancelTrades()
	if err != nil {
		metrics.CycleErrorsTotal.Inc()
		e.handleTradesFetchError(err)
		result.Warnings = append(result.Warnings, fmt.Sprintf("fetch trades: %v", err))
		result.Duration = time.Since(started)
		return result, nil
	}
	e.clearWarning()
	result.TradesSeen = len(trades)
	metrics.TradesSeenTotal.Add(float64(len(trades)))

	fresh := e.filterSeen(trades)

	for _, trade := range fresh {
		if err := e.copyOneTrade(ctx, cfg, mode, trade, leaderValue, &result); err != nil {
			msg := fmt.Sprintf("trade %s: %v", trade.TransactionHash, err)
			result.Warnings = append(result.Warnings, msg)
			e.events.Log(mode, "error", msg)
		}
	}

	result.Duration = time.Since(started)
	return result, nil
}

// settlementUser resolves the account whose closed positions the
// settlement pass should read: the follower wallet when execute_orders
// is on and a signer is actually wired, else the leader being copied.
func (e *Engine) settlementUser(cfg domain.CopyConfig) string {
	if cfg.ExecuteOrders && e.signer != nil {
		if addr := e.signer.Address(); addr != "" {
			return addr
		}
	}
	return cfg.Leader
}

// handleTradesFetchError records a trades-fetch failure as a warning and,
// when the failure looks like a rate limit, backs off the poll interval
// by rateLimitBackoffMs (floored at rateLimitFloorMs).
func (e *Engine) handleTradesFetchError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if isRateLimitError(err) {
		next := e.state.CurrentPollIntervalMs + rateLimitBackoffMs
		if next < rateLimitFloorMs {
			next = rateLimitFloorMs
		}
		e.state.CurrentPollIntervalMs = next
		w := fmt.Sprintf("rate limited fetching trades, poll interval backed off to %dms", next)
		e.state.Warning = &w
		return
	}

	w := err.Error()
	e.state.Warning = &w
}

// clearWarning clears the last cycle's warning after a clean trades fetch.
func (e *Engine) clearWarning() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Warning = nil
}

func (e *Engine) configSnapshot() (domain.CopyConfig, domain.StorageMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := *e.state.Config
	return cfg, cfg.Mode()
}

// filterSeen drops trades already present in LastSeenHashes and marks the
// rest as seen, under the engine's lock.
func (e *Engine) filterSeen(trades []ports.Trade) []ports.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	fresh := make([]ports.Trade, 0, len(trades))
	for _, t := range trades {
		if _, ok := e.state.LastSeenHashes[t.TransactionHash]; ok {
			continue
		}
		e.state.LastSeenHashes[t.TransactionHash] = struct{}{}
		fresh = append(fresh, t)
	}
	return fresh
}

func (e *Engine) copyOneTrade(ctx context.Context, cfg domain.CopyConfig, mode domain.StorageMode, trade ports.Trade, leaderValue decimal.Decimal, result *CycleResult) error {
	slug := domain.NormalizeSlug(trade.Slug)
	leaderMovementValue := trade.Price.Mul(trade.Size)

	unsettled, err := e.store.Unsettled(mode)
	if err != nil {
		return fmt.Errorf("load unsettled: %w", err)
	}

	plan, err := planner.Plan(cfg, unsettled, leaderValue, leaderMovementValue)
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	if plan.CappedSize.LessThanOrEqual(decimal.Zero) {
		result.Skipped++
		metrics.SkippedTotal.WithLabelValues(plan.Reason).Inc()
		e.events.Log(mode, "skip", fmt.Sprintf("%s: %s", slug, plan.Reason))
		return nil
	}

	if passes, reason := feefilter.PassesFilter(slug, plan.CappedSize); !passes {
		result.Skipped++
		metrics.SkippedTotal.WithLabelValues(reason).Inc()
		e.events.Log(mode, "skip", fmt.Sprintf("%s: %s", slug, reason))
		return nil
	}

	movementID := domain.MovementIDFor(mode, trade.TransactionHash)
	if e.store.Has(mode, movementID) {
		return nil
	}

	record := domain.MovementRecord{
		MovementID:           movementID,
		Market:               slug,
		Timestamp:            time.Now().UTC().Format(time.RFC3339),
		LeaderValue:          leaderValue,
		LeaderPrice:          trade.Price,
		Quantity:             trade.Size,
		CopiedValue:          plan.CappedSize,
		CopySide:             domain.Side(trade.Side),
		Outcome:              trade.Outcome,
		EstimatedTotalFeeUSD: feefilter.RoundTripFeeUSD(slug, plan.CappedSize),
	}

	if cfg.ExecuteOrders && !cfg.SimulationMode {
		book, err := e.venue.OrderBook(ctx, trade.Asset)
		if err != nil {
			return fmt.Errorf("fetch order book: %w", err)
		}
		fillPrice, err := liquidity.EstimateFillPrice(book, sideUpper(trade.Side), trade.Price, plan.CappedSize)
		if err != nil {
			return fmt.Errorf("estimate fill price: %w", err)
		}
		record.SimulatedCopyPrice = fillPrice
		diff := fillPrice.Sub(trade.Price).Abs()
		if !trade.Price.IsZero() {
			record.DiffPct = diff.Div(trade.Price).Mul(decimal.NewFromInt(100))
		}

		amount := plan.CappedSize
		if sideUpper(trade.Side) == "SELL" {
			amount = plan.CappedSize.Div(trade.Price)
		}
		signed, err := e.signer.Sign(ports.OrderRequest{TokenID: trade.Asset, Side: sideUpper(trade.Side), Amount: amount})
		if err != nil {
			return fmt.Errorf("sign order: %w", err)
		}
		if err := e.venue.PostOrder(ctx, signed); err != nil {
			return fmt.Errorf("post order: %w", err)
		}
	} else {
		record.SimulatedCopyPrice = trade.Price
	}

	if _, err := e.store.Append(mode, record); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	result.NewCopies++
	metrics.CopiesTotal.WithLabelValues(string(record.CopySide)).Inc()
	metrics.ExposureUSD.Add(plan.CappedSize.InexactFloat64())
	e.events.Log(mode, "copy", fmt.Sprintf("%s %s %s size=%s", slug, record.CopySide, movementID, plan.CappedSize.String()))
	slog.Info("copyengine: recorded movement", "slug", slug, "movement_id", movementID, "copied_value", plan.CappedSize.String(), "mode", mode.String())
	return nil
}

func sideUpper(side string) string {
	switch domain.Side(side) {
	case domain.SideSell:
		return "SELL"
	default:
		return "BUY"
	}
}

// Run drives RunOnce on a ticker until ctx is cancelled, honoring the
// poll interval currently set in the runtime state and the monitoring
// on/off toggle.
func (e *Engine) Run(ctx context.Context) error {
	for {
		e.mu.Lock()
		monitoring := e.state.Monitoring
		interval := time.Duration(e.state.CurrentPollIntervalMs) * time.Millisecond
		e.mu.Unlock()

		if !monitoring {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		result, err := e.RunOnce(ctx)
		if err != nil {
			slog.Error("copyengine: cycle failed", "err", err)
			e.mu.Lock()
			w := err.Error()
			e.state.Warning = &w
			e.mu.Unlock()
		} else if len(result.Warnings) > 0 {
			slog.Warn("copyengine: cycle completed with warnings", "count", len(result.Warnings))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
