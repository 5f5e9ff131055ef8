package signer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vngelio/polystation/internal/ports"
)

// testPrivateKey is a well-known, publicly documented test-only key (the
// default first account of common local Ethereum dev nodes). It controls
// no real funds and must never be used outside tests.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestEOASigner_AddressDerivedFromKey(t *testing.T) {
	s, err := New(testPrivateKey, false)
	require.NoError(t, err)
	assert.NotEmpty(t, s.Address())
	assert.Equal(t, "0x", s.Address()[:2])
}

func TestEOASigner_SignProducesSignature(t *testing.T) {
	s, err := New(testPrivateKey, false)
	require.NoError(t, err)

	signed, err := s.Sign(ports.OrderRequest{TokenID: "tok-1", Side: "BUY", Amount: decimal.RequireFromString("10")})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", signed.TokenID)
	assert.Equal(t, "BUY", signed.Side)
	assert.NotEmpty(t, signed.Signature)
	assert.Equal(t, "0x", signed.Signature[:2])
}

func TestEOASigner_SignRejectsZeroAmount(t *testing.T) {
	s, err := New(testPrivateKey, false)
	require.NoError(t, err)
	_, err = s.Sign(ports.OrderRequest{TokenID: "tok-1", Side: "BUY", Amount: decimal.Zero})
	require.Error(t, err)
}
