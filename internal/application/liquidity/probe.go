// Package liquidity estimates the average fill price for a target size by
// walking a venue order book, the way a marketable order would consume it.
package liquidity

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/ports"
)

// ErrInsufficientLiquidity is returned when the book cannot fill the
// requested size even after consuming every level on the relevant side.
var ErrInsufficientLiquidity = errors.New("liquidity: insufficient depth to fill requested size")

// EstimateFillPrice estimates the size-weighted average fill price for a
// copy worth copiedValueUSD, walking book (asks for a buy, bids for a
// sell). Asks must be sorted ascending by price and bids descending, as
// returned by ports.VenueClient.OrderBook.
//
// A buy consumes notional: each ask level contributes at most
// min(level.size*level.price, remaining_usdc), so depth is measured in
// dollars. A sell converts copiedValueUSD to a share count at the
// leader's own price (leaderPrice) and consumes bids share by share.
func EstimateFillPrice(book ports.OrderBook, side string, leaderPrice, copiedValueUSD decimal.Decimal) (decimal.Decimal, error) {
	if copiedValueUSD.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.New("liquidity: copied value must be > 0")
	}

	switch side {
	case "BUY":
		return estimateBuyFill(book.Asks, copiedValueUSD)
	case "SELL":
		return estimateSellFill(book.Bids, leaderPrice, copiedValueUSD)
	default:
		return decimal.Zero, errors.New("liquidity: side must be BUY or SELL")
	}
}

// estimateBuyFill walks asks best-to-worst, spending the remaining USDC
// budget one level's notional at a time.
func estimateBuyFill(asks []ports.BookLevel, remainingUSDC decimal.Decimal) (decimal.Decimal, error) {
	filledUSDC := decimal.Zero
	filledShares := decimal.Zero

	for _, ask := range asks {
		if remainingUSDC.LessThanOrEqual(decimal.Zero) {
			break
		}
		if ask.Price.LessThanOrEqual(decimal.Zero) {
			continue
		}
		levelNotional := ask.Size.Mul(ask.Price)
		taken := decimal.Min(levelNotional, remainingUSDC)
		filledUSDC = filledUSDC.Add(taken)
		filledShares = filledShares.Add(taken.Div(ask.Price))
		remainingUSDC = remainingUSDC.Sub(taken)
	}

	if remainingUSDC.GreaterThan(decimal.Zero) {
		return decimal.Zero, ErrInsufficientLiquidity
	}
	return filledUSDC.Div(filledShares), nil
}

// estimateSellFill sizes the sell in shares using the leader's own price,
// then walks bids best-to-worst share by share.
func estimateSellFill(bids []ports.BookLevel, leaderPrice, copiedValueUSD decimal.Decimal) (decimal.Decimal, error) {
	if leaderPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, errors.New("liquidity: leader price must be > 0 to size a sell")
	}
	remainingShares := copiedValueUSD.Div(leaderPrice)
	receivedUSDC := decimal.Zero
	soldShares := decimal.Zero

	for _, bid := range bids {
		if remainingShares.LessThanOrEqual(decimal.Zero) {
			break
		}
		taken := decimal.Min(bid.Size, remainingShares)
		receivedUSDC = receivedUSDC.Add(taken.Mul(bid.Price))
		soldShares = soldShares.Add(taken)
		remainingShares = remainingShares.Sub(taken)
	}

	if remainingShares.GreaterThan(decimal.Zero) {
		return decimal.Zero, ErrInsufficientLiquidity
	}
	return receivedUSDC.Div(soldShares), nil
}
