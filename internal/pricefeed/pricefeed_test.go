package pricefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"papertrade/internal/testutil"
)

func TestClient_GetQuote_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "ids=bitcoin") {
			t.Errorf("expected ids=bitcoin in query, got %q", r.URL.RawQuery)
		}
		resp := map[string]map[string]float64{
			"bitcoin": {"usd": 67234.56, "usd_market_cap": 1.32e12},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, 100)
	quote, err := c.GetQuote(context.Background(), "bitcoin")
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "price", quote.PriceUSD, "67234.56")
	if quote.AssetID != "bitcoin" {
		t.Errorf("expected asset id bitcoin, got %q", quote.AssetID)
	}
	if quote.MarketCapUSD.IsZero() {
		t.Error("expected a non-zero market cap")
	}
	if quote.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be set")
	}
}

func TestClient_GetQuote_MissingAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, 100)
	_, err := c.GetQuote(context.Background(), "obscurecoin")
	testutil.AssertAppError(t, err, "FEED_UNAVAILABLE")
}

func TestClient_GetQuote_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, 100)
	_, err := c.GetQuote(context.Background(), "bitcoin")
	testutil.AssertAppError(t, err, "FEED_UNAVAILABLE")
}

func TestClient_GetQuote_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, 100)
	_, err := c.GetQuote(context.Background(), "bitcoin")
	testutil.AssertAppError(t, err, "FEED_UNAVAILABLE")
}

func TestClient_GetQuote_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]map[string]float64{"bitcoin": {"usd": 100}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	// 10 requests/sec: three sequential calls must take at least ~200ms.
	c := NewClient(server.Client(), server.URL, 10)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.GetQuote(context.Background(), "bitcoin")
		testutil.AssertNoError(t, err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("expected rate limiter to pace requests, 3 calls took %s", elapsed)
	}
}

func TestClient_GetQuote_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]map[string]float64{"bitcoin": {"usd": 100}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient(server.Client(), server.URL, 100)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetQuote(ctx, "bitcoin")
	testutil.AssertAppError(t, err, "FEED_UNAVAILABLE")
}
