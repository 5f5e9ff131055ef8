// Package signer implements ports.Signer over an EOA wallet private key,
// building and EIP-712-signing CTF-exchange orders the way the venue's
// CLOB expects them.
package signer

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/polymarket/go-order-utils/pkg/builder"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/vngelio/polystation/internal/ports"
)

// zeroAddress is the taker address for a public (not privately negotiated)
// order.
const zeroAddress = "0x0000000000000000000000000000000000000000"

const polygonChainID = int64(137)

// EOASigner signs orders with a single Polygon externally-owned account.
type EOASigner struct {
	privateKey   *ecdsa.PrivateKey
	address      string
	orderBuilder builder.ExchangeOrderBuilder
	negRisk      bool
}

// New builds an EOASigner from a hex-encoded private key (without the 0x
// prefix). negRisk selects the neg-risk CTF exchange contract instead of
// the standard one.
func New(privateKeyHex string, negRisk bool) (*EOASigner, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("signer: invalid private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &EOASigner{
		privateKey:   key,
		address:      addr.Hex(),
		orderBuilder: builder.NewExchangeOrderBuilderImpl(big.NewInt(polygonChainID), nil),
		negRisk:      negRisk,
	}, nil
}

// Address returns the wallet's checksummed hex address.
func (s *EOASigner) Address() string {
	return s.address
}

// Sign builds a CTF-exchange order for the requested token/side/amount
// and returns it with its EIP-712 signature attached.
//
// For a BUY, Amount is USDC notional. For a SELL, Amount is the share
// count being offered. Both are converted to the integer maker/taker
// amount pair the exchange contract expects.
func (s *EOASigner) Sign(order ports.OrderRequest) (ports.SignedOrder, error) {
	side := model.BUY
	if order.Side == "SELL" {
		side = model.SELL
	}

	makerAmount, takerAmount, err := impliedAmounts(order.Amount)
	if err != nil {
		return ports.SignedOrder{}, err
	}

	verifyingContract := model.CTFExchange
	if s.negRisk {
		verifyingContract = model.NegRiskCTFExchange
	}

	orderData := &model.OrderData{
		Maker:         s.address,
		Taker:         zeroAddress,
		TokenId:       order.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		FeeRateBps:    "0",
		Nonce:         "0",
		Signer:        s.address,
		Expiration:    "0",
		Side:          side,
		SignatureType: model.EOA,
	}

	signed, err := s.orderBuilder.BuildSignedOrder(s.privateKey, orderData, verifyingContract)
	if err != nil {
		return ports.SignedOrder{}, fmt.Errorf("signer: build signed order: %w", err)
	}

	return ports.SignedOrder{
		TokenID:    order.TokenID,
		Side:       order.Side,
		AmountUSD:  order.Amount,
		FillOrKill: true,
		Signature:  "0x" + hex.EncodeToString(signed.Signature),
	}, nil
}

// impliedAmounts converts a USDC-notional or share-count amount into the
// maker/taker pair the CTF exchange requires, at cent precision, using
// integer arithmetic to avoid the floating point precision the CLOB
// rejects.
func impliedAmounts(amount decimal.Decimal) (string, string, error) {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0)
	if cents.LessThanOrEqual(decimal.Zero) {
		return "", "", fmt.Errorf("signer: amount must be > 0")
	}
	scaled := cents.IntPart() * 10000
	s := strconv.FormatInt(scaled, 10)
	return s, s, nil
}
