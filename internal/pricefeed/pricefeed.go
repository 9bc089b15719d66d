// Package pricefeed fetches live-ish market quotes for assets held in the
// portfolio. A feed failure for one asset is never fatal to a valuation
// cycle; callers skip the asset and continue.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	apperrors "papertrade/internal/errors"
)

// Quote is the current market data for one asset.
type Quote struct {
	AssetID      string          `json:"asset_id"`
	PriceUSD     decimal.Decimal `json:"price_usd"`
	MarketCapUSD decimal.Decimal `json:"market_cap_usd"`
	FetchedAt    time.Time       `json:"fetched_at"`
}

// Quoter fetches the current quote for a single asset.
type Quoter interface {
	GetQuote(ctx context.Context, assetID string) (*Quote, error)
}

// Client is a CoinGecko-style HTTP quote client. Requests are throttled by a
// token-bucket limiter so a fast refresh loop cannot exhaust the upstream
// rate budget.
type Client struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
	limiter    *rate.Limiter
}

// NewClient creates a quote client for the given feed base URL, allowing at
// most ratePerSec requests per second.
func NewClient(httpClient *http.Client, baseURL string, ratePerSec float64) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// simplePriceResponse maps asset id -> currency fields, e.g.
// {"bitcoin": {"usd": 64123.2, "usd_market_cap": 1.26e12}}.
type simplePriceResponse map[string]struct {
	USD          float64 `json:"usd"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// GetQuote fetches the current USD price and market cap for one asset.
// All failures are reported as FEED_UNAVAILABLE with the cause attached.
func (c *Client) GetQuote(ctx context.Context, assetID string) (*Quote, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_market_cap=true",
		c.baseURL, url.QueryEscape(assetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("http request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body simplePriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("decoding response: %w", err))
	}

	entry, ok := body[assetID]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrFeedUnavailable, fmt.Errorf("no quote for %q in response", assetID))
	}

	return &Quote{
		AssetID:      assetID,
		PriceUSD:     decimal.NewFromFloat(entry.USD),
		MarketCapUSD: decimal.NewFromFloat(entry.USDMarketCap),
		FetchedAt:    time.Now().UTC(),
	}, nil
}
