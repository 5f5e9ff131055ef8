// Package polymarket implements ports.VenueClient against Polymarket's
// public Data API, Gamma API, and CLOB, reusing a single rate-limited,
// retrying HTTP client for all three.
package polymarket

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

const (
	defaultDataAPIBase = "https://data-api.polymarket.com"
	defaultCLOBBase    = "https://clob.polymarket.com"
	defaultGammaBase   = "https://gamma-api.polymarket.com"

	// Rate limits kept at 60% of the documented public limits.
	dataAPIRatePerSec = 30
	clobRatePerSec    = 30
	gammaRatePerSec   = 18

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the rate-limited, retrying HTTP client shared by the venue
// adapter's Data API, CLOB, and Gamma calls.
type Client struct {
	http *http.Client

	dataAPIBase string
	clobBase    string
	gammaBase   string

	dataAPILimiter *rate.Limiter
	clobLimiter    *rate.Limiter
	gammaLimiter   *rate.Limiter

	// CLOB L1/L2 auth state, populated by EnsureCreds. Nil until an
	// order-executing run calls it; PostOrder falls back to an
	// unauthenticated request until then.
	authKey     *ecdsa.PrivateKey
	authAddress common.Address
	creds       *apiCredentials
}

// NewClient builds a Client; empty base URLs fall back to production.
func NewClient(dataAPIBase, clobBase, gammaBase string) *Client {
	if dataAPIBase == "" {
		dataAPIBase = defaultDataAPIBase
	}
	if clobBase == "" {
		clobBase = defaultCLOBBase
	}
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	return &Client{
		http:           &http.Client{Timeout: 10 * time.Second},
		dataAPIBase:    dataAPIBase,
		clobBase:       clobBase,
		gammaBase:      gammaBase,
		dataAPILimiter: rate.NewLimiter(dataAPIRatePerSec, 10),
		clobLimiter:    rate.NewLimiter(clobRatePerSec, 10),
		gammaLimiter:   rate.NewLimiter(gammaRatePerSec, 10),
	}
}

func (c *Client) get(ctx context.Context, limiter *rate.Limiter, url string, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

func (c *Client) post(ctx context.Context, limiter *rate.Limiter, url string, body, out any) error {
	return c.doWithRetry(ctx, limiter, func() (*http.Response, error) {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}, out)
}

// doWithRetry runs fn with exponential backoff, honoring 429/5xx and the
// rate limiter. A terminal 429 error carries the substring "429" so
// callers can recognize the venue's rate-limit shape without a typed
// error.
func (c *Client) doWithRetry(ctx context.Context, limiter *rate.Limiter, fn func() (*http.Response, error), out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := fn()
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			slog.Warn("polymarket: rate limited", "attempt", attempt+1)
			if attempt == maxRetries {
				return fmt.Errorf("rate limited: 429 too many requests after %d retries", maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("server error %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		defer resp.Body.Close()
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
