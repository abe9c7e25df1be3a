// Package rates fetches foreign exchange quotes and converts amounts into
// the home currency. Quotes are cached, and the client degrades through
// last-known and static rates rather than failing a message over a quote
// provider outage.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// DefaultBaseURL is the public quote provider.
const DefaultBaseURL = "https://dolarapi.com/v1"

// endpoints maps currency codes to provider paths.
var endpoints = map[string]string{
	"USD": "/dolares/blue",
	"EUR": "/cotizaciones/eur",
	"BRL": "/cotizaciones/brl",
}

// staticFallback is the rate of last resort when the provider has never
// answered. Stale beats silent refusal here.
var staticFallback = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(850),
	"EUR": decimal.NewFromInt(925),
	"BRL": decimal.NewFromInt(170),
}

const cacheKey = "rates"

// Client fetches and caches exchange rates.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	homeCurrency string
	cache        *cache.Cache
	group        singleflight.Group
	log          *slog.Logger

	mu        sync.Mutex
	lastKnown map[string]decimal.Decimal
}

// New builds a rate client. ttl controls how long a full quote set is served
// from cache; timeout bounds each provider request.
func New(baseURL, homeCurrency string, ttl, timeout time.Duration, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		homeCurrency: homeCurrency,
		cache:        cache.New(ttl, ttl),
		log:          log,
		lastKnown:    make(map[string]decimal.Decimal),
	}
}

type quote struct {
	Venta float64 `json:"venta"`
}

// fetchOne queries the provider for a single currency.
func (c *Client) fetchOne(ctx context.Context, currency string) (decimal.Decimal, error) {
	path, ok := endpoints[currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("no quote endpoint for %s", currency)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build quote request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch %s quote: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("quote provider returned %d for %s", resp.StatusCode, currency)
	}

	var q quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode %s quote: %w", currency, err)
	}
	if q.Venta <= 0 {
		return decimal.Zero, fmt.Errorf("quote provider returned non-positive rate for %s", currency)
	}
	return decimal.NewFromFloat(q.Venta), nil
}

// Rates returns the current quote set. Concurrent callers share one provider
// round trip; a failed currency falls back to its last known rate, then to
// the static table.
func (c *Client) Rates(ctx context.Context) map[string]decimal.Decimal {
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.(map[string]decimal.Decimal)
	}

	v, _, _ := c.group.Do(cacheKey, func() (any, error) {
		rates := make(map[string]decimal.Decimal, len(endpoints))
		var mu sync.Mutex
		var wg sync.WaitGroup
		for currency := range endpoints {
			wg.Add(1)
			go func(currency string) {
				defer wg.Done()
				rate, err := c.fetchOne(ctx, currency)
				if err != nil {
					c.log.Warn("quote fetch failed, using fallback", "currency", currency, "error", err)
					rate = c.fallbackFor(currency)
				} else {
					c.mu.Lock()
					c.lastKnown[currency] = rate
					c.mu.Unlock()
				}
				mu.Lock()
				rates[currency] = rate
				mu.Unlock()
			}(currency)
		}
		wg.Wait()
		c.cache.SetDefault(cacheKey, rates)
		return rates, nil
	})
	return v.(map[string]decimal.Decimal)
}

func (c *Client) fallbackFor(currency string) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate, ok := c.lastKnown[currency]; ok {
		return rate
	}
	return staticFallback[currency]
}

// Convert turns an amount in a foreign currency into the home currency.
// Home-currency amounts pass through. When no rate exists for the currency
// the amount is returned unconverted with a zero rate so the caller can flag
// the record instead of dropping it.
func (c *Client) Convert(ctx context.Context, amount decimal.Decimal, currency string) (decimal.Decimal, decimal.Decimal) {
	if currency == "" || currency == c.homeCurrency {
		return amount, decimal.NewFromInt(1)
	}
	rate, ok := c.Rates(ctx)[currency]
	if !ok || rate.IsZero() {
		c.log.Warn("no rate available, storing unconverted", "currency", currency)
		return amount, decimal.Zero
	}
	return amount.Mul(rate), rate
}
