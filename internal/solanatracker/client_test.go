package solanatracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

const tradesBody = `{
  "trades": [
    {
      "tx": "sig-2",
      "from": {"address": "So11111111111111111111111111111111111111112", "amount": 0.2, "token": {"symbol": "SOL", "name": "Wrapped SOL"}},
      "to": {"address": "MintA", "amount": 50, "priceUsd": 0.004, "token": {"symbol": "AAA", "name": "Token A"}},
      "volume": {"usd": 30.5},
      "program": "pump",
      "time": 1700000060000
    },
    {
      "tx": "sig-1",
      "from": {"address": "MintA", "amount": 10, "token": {"symbol": "AAA"}},
      "to": {"address": "So11111111111111111111111111111111111111112", "amount": 0.05, "token": {"symbol": "SOL"}},
      "time": 1700000000000
    }
  ],
  "hasNextPage": false
}`

func testClient(url string) *Client {
	return New(Config{
		BaseURL:           url,
		APIKey:            "secret",
		TradesLimit:       25,
		RequestsPerSecond: 1000,
		Burst:             100,
		Timeout:           2 * time.Second,
		Retry:             RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	})
}

func TestClient_FetchRecentSwaps(t *testing.T) {
	var gotPath, gotKey, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tradesBody))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	swaps, err := c.FetchRecentSwaps(context.Background(), "Wallet1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/wallet/Wallet1/trades" {
		t.Errorf("expected path /wallet/Wallet1/trades, got %s", gotPath)
	}
	if gotKey != "secret" {
		t.Errorf("expected x-api-key secret, got %q", gotKey)
	}
	if gotLimit != "25" {
		t.Errorf("expected limit 25, got %s", gotLimit)
	}
	if len(swaps) != 2 {
		t.Fatalf("expected 2 swaps, got %d", len(swaps))
	}
	// Upstream order is kept.
	if swaps[0].TxID != "sig-2" || swaps[1].TxID != "sig-1" {
		t.Errorf("expected [sig-2 sig-1], got [%s %s]", swaps[0].TxID, swaps[1].TxID)
	}
	if swaps[0].To.Symbol != "AAA" || swaps[0].ToAmount.String() != "50" {
		t.Errorf("unexpected to leg: %+v %s", swaps[0].To, swaps[0].ToAmount)
	}
	if swaps[1].To.Name != "Unknown" {
		t.Errorf("expected default name Unknown, got %q", swaps[1].To.Name)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"trades":[]}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	trades, err := c.FetchRecentTrades(context.Background(), "w")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("expected 0 trades, got %d", len(trades))
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClient_RateLimitedAfterRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchRecentTrades(context.Background(), "w")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestClient_PermanentErrorsNotRetried(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tt := range tests {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(tt.status)
		}))

		c := testClient(srv.URL)
		_, err := c.FetchTokenSnapshot(context.Background(), "MintA")
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		if atomic.LoadInt32(&calls) != 1 {
			t.Errorf("status %d: expected 1 call, got %d", tt.status, calls)
		}
		srv.Close()
	}
}

func TestClient_OnRequestHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":{"name":"A"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	var endpoint string
	var status int
	c.OnRequest = func(ep string, st int, _ time.Duration) {
		endpoint, status = ep, st
	}
	if _, err := c.FetchTokenSnapshot(context.Background(), "MintA"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if endpoint != "token" || status != 200 {
		t.Errorf("expected token/200, got %s/%d", endpoint, status)
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := testClient(srv.URL)
	if _, err := c.FetchRecentTrades(ctx, "w"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestEnricher_Snapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tokens/MintA" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{
			"token": {"name": "Token A", "symbol": "AAA", "creation": {"created_time": 1699999400}},
			"pools": [{"marketCap": {"usd": 42000}, "liquidity": {"usd": 9000}, "lpBurn": 100, "market": "pumpfun-amm"}],
			"holders": 310, "buys": 60, "sells": 40
		}`))
	}))
	defer srv.Close()

	e := NewEnricher(testClient(srv.URL))
	e.now = func() time.Time { return time.Unix(1700000000, 0) }

	en, err := e.Snapshot(context.Background(), "MintA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if en.AgeSeconds != 600 {
		t.Errorf("expected age 600, got %d", en.AgeSeconds)
	}
	if en.MarketCap != 42000 || en.Liquidity != 9000 {
		t.Errorf("expected mc 42000 liq 9000, got %v %v", en.MarketCap, en.Liquidity)
	}
	if en.BuySellRatio != 1.5 {
		t.Errorf("expected ratio 1.5, got %v", en.BuySellRatio)
	}

	if _, err := e.Snapshot(context.Background(), "Other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
