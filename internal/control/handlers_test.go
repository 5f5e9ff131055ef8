package control

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vngelio/polystation/internal/domain"
)

type fakeEngine struct {
	monitoring bool
	cfg        *domain.CopyConfig
}

func (f *fakeEngine) Snapshot() domain.RuntimeState {
	return domain.RuntimeState{Config: f.cfg, Monitoring: f.monitoring, CurrentPollIntervalMs: 1000, LastSeenHashes: map[string]struct{}{}}
}
func (f *fakeEngine) SetMonitoring(on bool) { f.monitoring = on }
func (f *fakeEngine) Configure(cfg domain.CopyConfig) (domain.CopyConfig, error) {
	if err := cfg.Validate(); err != nil {
		return domain.CopyConfig{}, err
	}
	f.cfg = &cfg
	return cfg, nil
}

type nilStore struct{}

func (nilStore) Append(mode domain.StorageMode, m domain.MovementRecord) (int64, error) { return 0, nil }
func (nilStore) Has(mode domain.StorageMode, movementID string) bool                    { return false }
func (nilStore) Settle(mode domain.StorageMode, movementID string, pnl decimal.Decimal) error {
	return nil
}
func (nilStore) All(mode domain.StorageMode) ([]domain.MovementRecord, error) { return nil, nil }
func (nilStore) Unsettled(mode domain.StorageMode) ([]domain.MovementRecord, error) {
	return nil, nil
}
func (nilStore) AppendSettlementLog(mode domain.StorageMode, m domain.MovementRecord) error {
	return nil
}

type fakeRecordStore struct {
	nilStore
	records []domain.MovementRecord
}

func (f fakeRecordStore) All(mode domain.StorageMode) ([]domain.MovementRecord, error) {
	return f.records, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestHandleHealth_NoAuthRequired(t *testing.T) {
	h := NewHandlers(&fakeEngine{}, nilStore{}, testLogger())
	srv := New(Config{Addr: ":0", BearerToken: "secret"}, h, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_RejectsMissingToken(t *testing.T) {
	called := false
	handler := requireAuth("secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireAuth_AcceptsValidTokenViaHeader(t *testing.T) {
	called := false
	handler := requireAuth("secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	req.Header.Set("X-API-Key", "secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "close", w.Header().Get("Connection"))
}

func TestRequireAuth_AcceptsValidTokenViaQueryParam(t *testing.T) {
	called := false
	handler := requireAuth("secret", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/state?token=secret", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestRequireAuth_EmptyTokenDisablesAuth(t *testing.T) {
	called := false
	handler := requireAuth("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleState_ReportsAggregateSnapshot(t *testing.T) {
	cfg := &domain.CopyConfig{Leader: "0xleader", AllocatedFunds: decimal.RequireFromString("1000"), SimulationMode: true}
	h := NewHandlers(&fakeEngine{cfg: cfg}, nilStore{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/state", nil)
	w := httptest.NewRecorder()
	h.HandleState(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0xleader")
	assert.Contains(t, w.Body.String(), "simulacion")
	assert.Contains(t, w.Body.String(), "current_equity")
	assert.Contains(t, w.Body.String(), "available_to_copy")
}

func TestHandleStartStop_TogglesMonitoring(t *testing.T) {
	e := &fakeEngine{}
	h := NewHandlers(e, nilStore{}, testLogger())

	w := httptest.NewRecorder()
	h.HandleStart(w, httptest.NewRequest(http.MethodPost, "/api/start", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, e.monitoring)

	w2 := httptest.NewRecorder()
	h.HandleStop(w2, httptest.NewRequest(http.MethodPost, "/api/stop", nil))
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.False(t, e.monitoring)
}

func TestHandleConfigure_AppliesValidConfig(t *testing.T) {
	e := &fakeEngine{}
	h := NewHandlers(e, nilStore{}, testLogger())

	body := `{"leader":"0x1234567890123456789012345678901234567890","allocated_funds":"500","max_trade_pct":"10","max_total_exposure_pct":"50","poll_interval_ms":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/configure", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleConfigure(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, e.cfg)
	assert.Equal(t, "0x1234567890123456789012345678901234567890", e.cfg.Leader)
}

func TestHandleConfigure_RejectsInvalidConfig(t *testing.T) {
	e := &fakeEngine{}
	h := NewHandlers(e, nilStore{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/configure", strings.NewReader(`{"leader":"not-an-address"}`))
	w := httptest.NewRecorder()
	h.HandleConfigure(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, e.cfg)
}

func TestHandleUpdates_FiltersBySinceAndSortsAscending(t *testing.T) {
	cfg := &domain.CopyConfig{Leader: "0xleader", SimulationMode: true}
	store := fakeRecordStore{records: []domain.MovementRecord{
		{ID: 3, MovementID: "tx-3"},
		{ID: 1, MovementID: "tx-1"},
		{ID: 2, MovementID: "tx-2"},
	}}
	h := NewHandlers(&fakeEngine{cfg: cfg}, store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/updates?since=1", nil)
	w := httptest.NewRecorder()
	h.HandleUpdates(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp updatesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.LatestID)
	require.Len(t, resp.Movements, 2)
	assert.Equal(t, "tx-2", resp.Movements[0].MovementID)
	assert.Equal(t, "tx-3", resp.Movements[1].MovementID)
}
