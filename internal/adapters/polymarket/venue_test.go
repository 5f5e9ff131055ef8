package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vngelio/polystation/internal/adapters/polymarket"
)

func newTestClient(dataSrv, clobSrv *httptest.Server) *polymarket.Client {
	dataURL, clobURL := "", ""
	if dataSrv != nil {
		dataURL = dataSrv.URL
	}
	if clobSrv != nil {
		clobURL = clobSrv.URL
	}
	return polymarket.NewClient(dataURL, clobURL, "")
}

func TestTrades_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trades", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"transactionHash":"0xabc","slug":"btc-updown-1h","asset":"tok-1","side":"buy","outcome":"Yes","price":"0.55","size":"100"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	trades, err := client.Trades(context.Background(), "0xleader", 50)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "0xabc", trades[0].TransactionHash)
	assert.Equal(t, "btc-updown-1h", trades[0].Slug)
	assert.True(t, trades[0].Price.Equal(mustDecimal("0.55")))
}

func TestClosedPositions_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"slug":"btc-updown-1h","timestamp":"1753873200","realizedPnl":"5.25","totalBought":"100"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	closures, err := client.ClosedPositions(context.Background(), "0xleader", 100)
	require.NoError(t, err)
	require.Len(t, closures, 1)
	assert.Equal(t, int64(1753873200), closures[0].Timestamp)
	assert.True(t, closures[0].RealizedPnL.Equal(mustDecimal("5.25")))
}

func TestValue_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/value", r.URL.Path)
		w.Write([]byte(`{"value":"12345.67"}`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	v, err := client.Value(context.Background(), "0xleader")
	require.NoError(t, err)
	assert.True(t, v.Equal(mustDecimal("12345.67")))
}

func TestOrderBook_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/book", r.URL.Path)
		w.Write([]byte(`{"bids":[{"price":"0.50","size":"10"}],"asks":[{"price":"0.52","size":"20"}]}`))
	}))
	defer srv.Close()

	client := newTestClient(nil, srv)
	book, err := client.OrderBook(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, book.Bids, 1)
	require.Len(t, book.Asks, 1)
	assert.True(t, book.Bids[0].Price.Equal(mustDecimal("0.50")))
}

func TestTrades_RateLimitSurfaces429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	_, err := client.Trades(context.Background(), "0xleader", 50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
