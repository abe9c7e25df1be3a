package rates

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func quoteServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		switch r.URL.Path {
		case "/dolares/blue":
			fmt.Fprint(w, `{"compra": 840, "venta": 860}`)
		case "/cotizaciones/eur":
			fmt.Fprint(w, `{"compra": 900, "venta": 930}`)
		case "/cotizaciones/brl":
			fmt.Fprint(w, `{"compra": 160, "venta": 175}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestRatesFetchAndCache(t *testing.T) {
	var hits atomic.Int64
	srv := quoteServer(t, &hits)
	defer srv.Close()

	c := New(srv.URL, "ARS", 30*time.Minute, 5*time.Second, testLogger())
	ctx := context.Background()

	rates := c.Rates(ctx)
	if !rates["USD"].Equal(decimal.NewFromInt(860)) {
		t.Errorf("USD = %s, want 860", rates["USD"])
	}
	if !rates["EUR"].Equal(decimal.NewFromInt(930)) {
		t.Errorf("EUR = %s, want 930", rates["EUR"])
	}
	if !rates["BRL"].Equal(decimal.NewFromInt(175)) {
		t.Errorf("BRL = %s, want 175", rates["BRL"])
	}

	first := hits.Load()
	c.Rates(ctx)
	if hits.Load() != first {
		t.Errorf("second call hit the provider, want cached result")
	}
}

func TestRatesStaticFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "ARS", time.Minute, time.Second, testLogger())
	rates := c.Rates(context.Background())
	if !rates["USD"].Equal(decimal.NewFromInt(850)) {
		t.Errorf("USD fallback = %s, want 850", rates["USD"])
	}
	if !rates["EUR"].Equal(decimal.NewFromInt(925)) {
		t.Errorf("EUR fallback = %s, want 925", rates["EUR"])
	}
}

func TestRatesLastKnownFallback(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"venta": 900}`)
	}))
	defer srv.Close()

	// Tiny TTL so the second call refetches.
	c := New(srv.URL, "ARS", time.Millisecond, time.Second, testLogger())
	ctx := context.Background()

	if got := c.Rates(ctx)["USD"]; !got.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("USD = %s, want 900", got)
	}

	healthy.Store(false)
	time.Sleep(5 * time.Millisecond)
	if got := c.Rates(ctx)["USD"]; !got.Equal(decimal.NewFromInt(900)) {
		t.Errorf("USD after outage = %s, want last known 900", got)
	}
}

func TestConvert(t *testing.T) {
	srv := quoteServer(t, nil)
	defer srv.Close()

	c := New(srv.URL, "ARS", time.Minute, time.Second, testLogger())
	ctx := context.Background()

	converted, rate := c.Convert(ctx, decimal.NewFromInt(50), "USD")
	if !converted.Equal(decimal.NewFromInt(43000)) {
		t.Errorf("converted = %s, want 43000", converted)
	}
	if !rate.Equal(decimal.NewFromInt(860)) {
		t.Errorf("rate = %s, want 860", rate)
	}

	passthrough, rate := c.Convert(ctx, decimal.NewFromInt(500), "ARS")
	if !passthrough.Equal(decimal.NewFromInt(500)) || !rate.Equal(decimal.NewFromInt(1)) {
		t.Errorf("home currency should pass through, got %s at rate %s", passthrough, rate)
	}

	unknown, rate := c.Convert(ctx, decimal.NewFromInt(100), "GBP")
	if !unknown.Equal(decimal.NewFromInt(100)) || !rate.IsZero() {
		t.Errorf("unknown currency should return unconverted, got %s at rate %s", unknown, rate)
	}
}
