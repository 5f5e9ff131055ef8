package ports

import "github.com/shopspring/decimal"

// OrderRequest describes the order the engine wants placed, before
// signing. Amount is expressed in USDC notional for buys, or in shares
// for sells (the engine computes which per spec §4.G step 8).
type OrderRequest struct {
	TokenID string
	Side    string // "BUY" or "SELL"
	Amount  decimal.Decimal
}

// Signer resolves a wallet address and signs orders. The core treats it
// as opaque: wallet/signer resolution and order signing are external
// collaborators per spec §1.
type Signer interface {
	Address() string
	Sign(order OrderRequest) (SignedOrder, error)
}
