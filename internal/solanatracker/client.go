// Package solanatracker is the market data gateway for the Solana Tracker
// data API: wallet trade history and per-token risk snapshots.
package solanatracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"wallet-tracker/internal/model"
)

const DefaultBaseURL = "https://data.solanatracker.io"

var (
	ErrUnauthorized = errors.New("solanatracker: unauthorized")
	ErrNotFound     = errors.New("solanatracker: not found")
	ErrRateLimited  = errors.New("solanatracker: rate limited")
)

// Config configures the API client.
type Config struct {
	BaseURL           string
	APIKey            string
	TradesLimit       int
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	Retry             RetryConfig
}

// Client talks to the data API. Every request waits on a shared rate
// limiter and is retried on transient failures.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	retryer *Retryer

	// OnRequest, if set, observes each HTTP attempt (status 0 on transport error).
	OnRequest func(endpoint string, status int, elapsed time.Duration)
}

// New creates a client, filling unset config with defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TradesLimit <= 0 {
		cfg.TradesLimit = 100
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		retryer: NewRetryer(cfg.Retry),
	}
}

// FetchRecentTrades returns the wallet's latest trades, most recent first.
func (c *Client) FetchRecentTrades(ctx context.Context, wallet string) ([]RawTrade, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.cfg.TradesLimit))

	var resp tradesResponse
	path := "/wallet/" + url.PathEscape(wallet) + "/trades"
	if err := c.get(ctx, "wallet_trades", path, q, &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}

// FetchRecentSwaps returns the wallet's latest trades normalized, still most
// recent first. Callers replaying them into a ledger must reverse the slice.
func (c *Client) FetchRecentSwaps(ctx context.Context, wallet string) ([]model.SwapEvent, error) {
	raws, err := c.FetchRecentTrades(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return NormalizeAll(raws), nil
}

// FetchTokenSnapshot returns the raw token payload for a mint.
func (c *Client) FetchTokenSnapshot(ctx context.Context, mint string) (*RawToken, error) {
	var tok RawToken
	if err := c.get(ctx, "token", "/tokens/"+url.PathEscape(mint), nil, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	return c.retryer.Execute(ctx, endpoint, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return permanent(fmt.Errorf("solanatracker: create request: %w", err))
		}
		req.Header.Set("x-api-key", c.cfg.APIKey)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			c.observe(endpoint, 0, start)
			return fmt.Errorf("solanatracker: %s: %w", endpoint, err)
		}
		defer resp.Body.Close()
		c.observe(endpoint, resp.StatusCode, start)

		if err := statusError(resp); err != nil {
			return err
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return permanent(fmt.Errorf("solanatracker: decode %s: %w", endpoint, err))
		}
		return nil
	})
}

func (c *Client) observe(endpoint string, status int, start time.Time) {
	if c.OnRequest != nil {
		c.OnRequest(endpoint, status, time.Since(start))
	}
}

// statusError maps a non-2xx response to an error. 429 and 5xx stay
// retryable; other client errors are permanent.
func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return permanent(fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		return permanent(ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, body)
	case resp.StatusCode >= 500:
		return fmt.Errorf("solanatracker: status %d: %s", resp.StatusCode, body)
	default:
		return permanent(fmt.Errorf("solanatracker: status %d: %s", resp.StatusCode, body))
	}
}
