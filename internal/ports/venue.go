// Package ports declares the small interfaces the copy-trading core
// depends on: the remote venue/data client, the order signer, and the
// durable movement store. Concrete implementations live under
// internal/adapters.
package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// Trade is one leader trade as returned by the venue's trade-history
// endpoint.
type Trade struct {
	TransactionHash string
	Slug            string
	Asset           string
	Side            string
	Outcome         string
	Price           decimal.Decimal
	Size            decimal.Decimal
}

// ClosedPosition is one resolved/closed leader position.
type ClosedPosition struct {
	Slug         string
	Timestamp    int64 // epoch seconds; 0 = unknown, always-eligible
	RealizedPnL  decimal.Decimal
	TotalBought  decimal.Decimal
}

// BookLevel is one price level of an order book side.
type BookLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is a token's current order book.
type OrderBook struct {
	Asks []BookLevel // ascending by price
	Bids []BookLevel // descending by price
}

// SignedOrder is an already-signed order ready for submission. Signature
// and the maker/taker amounts it commits to are opaque to the engine core;
// only the signer and venue adapters interpret them.
type SignedOrder struct {
	TokenID    string
	Side       string
	AmountUSD  decimal.Decimal // for buys: usdc notional; for sells: share count
	FillOrKill bool
	Signature  string
}

// VenueClient is the remote data/venue API the copy engine observes and
// (optionally) submits orders to. Implementations are expected to
// surface rate-limit errors with a message containing a recognizable
// substring ("429", "too many", "rate limit") per spec §7.
type VenueClient interface {
	Trades(ctx context.Context, user string, limit int) ([]Trade, error)
	ClosedPositions(ctx context.Context, user string, limit int) ([]ClosedPosition, error)
	Value(ctx context.Context, user string) (decimal.Decimal, error)
	OrderBook(ctx context.Context, token string) (OrderBook, error)
	PostOrder(ctx context.Context, order SignedOrder) error
}
