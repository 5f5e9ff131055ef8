package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/ports"
)

const (
	dataTradesPath    = "/trades"
	dataPositionsPath = "/positions"
	dataValuePath     = "/value"
	clobBooksPath     = "/book"
)

// rawTrade is the Data API's /trades item shape.
type rawTrade struct {
	TransactionHash string      `json:"transactionHash"`
	Slug            string      `json:"slug"`
	Asset           string      `json:"asset"`
	Side            string      `json:"side"`
	Outcome         string      `json:"outcome"`
	Price           json.Number `json:"price"`
	Size            json.Number `json:"size"`
}

// rawClosedPosition is the Data API's /positions?closed=true item shape.
type rawClosedPosition struct {
	Slug        string      `json:"slug"`
	Timestamp   json.Number `json:"timestamp"`
	RealizedPnL json.Number `json:"realizedPnl"`
	TotalBought json.Number `json:"totalBought"`
}

// rawValue is the Data API's /value?user=... response shape.
type rawValue struct {
	Value json.Number `json:"value"`
}

// rawBookLevel is one order book level as returned by the CLOB (strings
// for precision, per the venue's documented convention).
type rawBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type rawBook struct {
	Bids []rawBookLevel `json:"bids"`
	Asks []rawBookLevel `json:"asks"`
}

// Trades returns the leader's most recent trades via the Data API.
func (c *Client) Trades(ctx context.Context, user string, limit int) ([]ports.Trade, error) {
	url := fmt.Sprintf("%s%s?user=%s&limit=%d", c.dataAPIBase, dataTradesPath, user, limit)
	var resp []rawTrade
	if err := c.get(ctx, c.dataAPILimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("polymarket.Trades: %w", err)
	}

	out := make([]ports.Trade, 0, len(resp))
	for _, rt := range resp {
		price, err := decimalFromNumber(rt.Price)
		if err != nil {
			slog.Debug("polymarket: skipping trade with unparsable price", "tx", rt.TransactionHash, "err", err)
			continue
		}
		size, err := decimalFromNumber(rt.Size)
		if err != nil {
			slog.Debug("polymarket: skipping trade with unparsable size", "tx", rt.TransactionHash, "err", err)
			continue
		}
		out = append(out, ports.Trade{
			TransactionHash: rt.TransactionHash,
			Slug:            rt.Slug,
			Asset:           rt.Asset,
			Side:            rt.Side,
			Outcome:         rt.Outcome,
			Price:           price,
			Size:            size,
		})
	}
	return out, nil
}

// ClosedPositions returns user's resolved positions via the Data API's
// closed-positions filter.
func (c *Client) ClosedPositions(ctx context.Context, user string, limit int) ([]ports.ClosedPosition, error) {
	url := fmt.Sprintf("%s%s?user=%s&closed=true&limit=%d", c.dataAPIBase, dataPositionsPath, user, limit)
	var resp []rawClosedPosition
	if err := c.get(ctx, c.dataAPILimiter, url, &resp); err != nil {
		return nil, fmt.Errorf("polymarket.ClosedPositions: %w", err)
	}

	out := make([]ports.ClosedPosition, 0, len(resp))
	for _, rp := range resp {
		pnl, err := decimalFromNumber(rp.RealizedPnL)
		if err != nil {
			continue
		}
		bought, err := decimalFromNumber(rp.TotalBought)
		if err != nil {
			continue
		}
		var ts int64
		if rp.Timestamp.String() != "" {
			ts, _ = strconv.ParseInt(rp.Timestamp.String(), 10, 64)
		}
		out = append(out, ports.ClosedPosition{
			Slug:        rp.Slug,
			Timestamp:   ts,
			RealizedPnL: pnl,
			TotalBought: bought,
		})
	}
	return out, nil
}

// Value returns the leader's total open-positions value via the Data
// API's /value endpoint.
func (c *Client) Value(ctx context.Context, user string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s%s?user=%s", c.dataAPIBase, dataValuePath, user)
	var resp rawValue
	if err := c.get(ctx, c.dataAPILimiter, url, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("polymarket.Value: %w", err)
	}
	return decimalFromNumber(resp.Value)
}

// OrderBook returns the current CLOB order book for token.
func (c *Client) OrderBook(ctx context.Context, token string) (ports.OrderBook, error) {
	url := fmt.Sprintf("%s%s?token_id=%s", c.clobBase, clobBooksPath, token)
	var resp rawBook
	if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
		return ports.OrderBook{}, fmt.Errorf("polymarket.OrderBook: %w", err)
	}

	book := ports.OrderBook{
		Bids: make([]ports.BookLevel, 0, len(resp.Bids)),
		Asks: make([]ports.BookLevel, 0, len(resp.Asks)),
	}
	for _, b := range resp.Bids {
		price, err := decimal.NewFromString(b.Price)
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(b.Size)
		if err != nil {
			continue
		}
		book.Bids = append(book.Bids, ports.BookLevel{Price: price, Size: size})
	}
	for _, a := range resp.Asks {
		price, err := decimal.NewFromString(a.Price)
		if err != nil {
			continue
		}
		size, err := decimal.NewFromString(a.Size)
		if err != nil {
			continue
		}
		book.Asks = append(book.Asks, ports.BookLevel{Price: price, Size: size})
	}
	return book, nil
}

// PostOrder submits a signed order to the CLOB, authenticated with L2
// HMAC headers when EnsureCreds has been called; otherwise it falls
// back to a plain POST (only reachable in tests).
func (c *Client) PostOrder(ctx context.Context, order ports.SignedOrder) error {
	body := map[string]any{
		"token_id":     order.TokenID,
		"side":         order.Side,
		"amount":       order.AmountUSD.String(),
		"fill_or_kill": order.FillOrKill,
		"signature":    order.Signature,
	}
	return c.postAuthenticated(ctx, "/order", body, nil)
}

func decimalFromNumber(n json.Number) (decimal.Decimal, error) {
	s := n.String()
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty numeric value")
	}
	return decimal.NewFromString(s)
}
