package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/config"
	"github.com/vngelio/polystation/internal/domain"
	"github.com/vngelio/polystation/internal/ports"
)

// EngineController is the minimal surface Handlers needs from the copy
// engine. Decouples the control plane from *copyengine.Engine concrete.
type EngineController interface {
	Snapshot() domain.RuntimeState
	SetMonitoring(on bool)
	Configure(cfg domain.CopyConfig) (domain.CopyConfig, error)
}

// Handlers implements the control plane's HTTP endpoints.
type Handlers struct {
	engine EngineController
	store  ports.Store
	logger *slog.Logger

	// fullConfig and configPath let HandleConfigure persist a runtime
	// reconfiguration back to disk, preserving the ambient sections
	// (API/storage/log/control) that never round-trip through the API.
	// Either may be nil/empty, in which case configure updates the live
	// engine but does not persist.
	fullConfig *config.Config
	configPath string
}

// NewHandlers wires Handlers around the engine and store.
func NewHandlers(engine EngineController, store ports.Store, logger *slog.Logger) *Handlers {
	return &Handlers{engine: engine, store: store, logger: logger}
}

// WithPersistence attaches the on-disk config and path HandleConfigure
// should update after a successful reconfigure.
func (h *Handlers) WithPersistence(fullConfig *config.Config, configPath string) *Handlers {
	h.fullConfig = fullConfig
	h.configPath = configPath
	return h
}

// HandleHealth is an unauthenticated liveness probe.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type pnlPoint struct {
	Date string          `json:"date"`
	PnL  decimal.Decimal `json:"pnl"`
}

type stateResponse struct {
	Configured            bool                    `json:"configured"`
	Monitoring            bool                    `json:"monitoring"`
	Config                *domain.CopyConfig      `json:"config,omitempty"`
	CurrentPollIntervalMs int64                   `json:"current_poll_interval_ms"`
	Warning               *string                 `json:"warning,omitempty"`
	ActiveMode            string                  `json:"active_mode,omitempty"`
	MovementCount         int                     `json:"movement_count"`
	InitialAllocatedFunds decimal.Decimal         `json:"initial_allocated_funds"`
	CurrentEquity         decimal.Decimal         `json:"current_equity"`
	UsedExposure          decimal.Decimal         `json:"used_exposure"`
	AvailableToCopy       decimal.Decimal         `json:"available_to_copy"`
	Movements             []domain.MovementRecord `json:"movements"`
	DailyPnL              []pnlPoint              `json:"daily_pnl"`
	CumulativePnL         []pnlPoint              `json:"cumulative_pnl"`
}

// maxStateMovementRows caps how many of the tail movement rows /api/state
// embeds directly; older rows are reachable via /api/updates.
const maxStateMovementRows = 300

// HandleState reports the engine's full aggregated snapshot: config,
// monitor status, exposure/equity figures, recent movements, and the
// settled-PnL time series.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	resp := stateResponse{
		Configured:            snap.Config != nil,
		Monitoring:            snap.Monitoring,
		CurrentPollIntervalMs: snap.CurrentPollIntervalMs,
		Warning:               snap.Warning,
	}
	if snap.Config == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	cfg := *snap.Config
	resp.Config = &cfg
	resp.ActiveMode = cfg.Mode().String()
	resp.InitialAllocatedFunds = cfg.AllocatedFunds

	records, err := h.store.All(cfg.Mode())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp.MovementCount = len(records)

	equity := cfg.AllocatedFunds
	usedExposure := domain.Zero
	dailyTotals := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.Settled {
			equity = equity.Add(rec.PnL).Sub(rec.EstimatedTotalFeeUSD)
			day := rec.Day()
			dailyTotals[day] = dailyTotals[day].Add(rec.PnL)
		} else {
			usedExposure = usedExposure.Add(rec.CopiedValue)
		}
	}
	resp.CurrentEquity = equity
	resp.UsedExposure = usedExposure
	resp.AvailableToCopy = domain.ClampNonNegative(equity.Sub(usedExposure))

	days := make([]string, 0, len(dailyTotals))
	for day := range dailyTotals {
		days = append(days, day)
	}
	sort.Strings(days)
	cumulative := domain.Zero
	for _, day := range days {
		amount := dailyTotals[day]
		resp.DailyPnL = append(resp.DailyPnL, pnlPoint{Date: day, PnL: amount})
		cumulative = cumulative.Add(amount)
		resp.CumulativePnL = append(resp.CumulativePnL, pnlPoint{Date: day, PnL: cumulative})
	}

	if len(records) > maxStateMovementRows {
		records = records[len(records)-maxStateMovementRows:]
	}
	resp.Movements = records

	writeJSON(w, http.StatusOK, resp)
}

type updatesResponse struct {
	LatestID  int64                   `json:"latest_id"`
	Movements []domain.MovementRecord `json:"movements"`
}

// maxUpdatesRows caps one /api/updates response, keeping each poll cheap
// regardless of how far a client has fallen behind.
const maxUpdatesRows = 200

// HandleUpdates returns movements with id > since (default 0), ascending
// by id and capped at maxUpdatesRows, alongside the highest id observed.
func (h *Handlers) HandleUpdates(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()
	if snap.Config == nil {
		http.Error(w, "no configuration loaded", http.StatusServiceUnavailable)
		return
	}

	since := int64(0)
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	records, err := h.store.All(snap.Config.Mode())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var latestID int64
	var updates []domain.MovementRecord
	for _, rec := range records {
		if rec.ID > latestID {
			latestID = rec.ID
		}
		if rec.ID > since {
			updates = append(updates, rec)
		}
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].ID < updates[j].ID })
	if len(updates) > maxUpdatesRows {
		updates = updates[:maxUpdatesRows]
	}

	writeJSON(w, http.StatusOK, updatesResponse{LatestID: latestID, Movements: updates})
}

// HandleConfigure validates and applies a new copy-trading configuration,
// pushing it straight into the running engine and persisting it to disk
// when Handlers was built WithPersistence.
func (h *Handlers) HandleConfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cfg domain.CopyConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	normalized, err := h.engine.Configure(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.fullConfig != nil && h.configPath != "" {
		h.fullConfig.Copy = normalized
		if err := config.Save(h.configPath, h.fullConfig); err != nil {
			h.logger.Error("control: failed to persist configuration", "err", err)
		}
	}

	h.logger.Info("control: configuration updated via control plane", "leader", normalized.Leader, "mode", normalized.Mode().String())
	writeJSON(w, http.StatusOK, normalized)
}

// HandleStart turns the monitor loop on.
func (h *Handlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.engine.SetMonitoring(true)
	h.logger.Info("control: monitoring started via control plane")
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// HandleStop turns the monitor loop off.
func (h *Handlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.engine.SetMonitoring(false)
	h.logger.Info("control: monitoring stopped via control plane")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// HandleDashboard serves the minimal embedded status page.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
