package currency

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sadopc/billr/internal/dashboard"
)

var today = time.Date(2024, time.January, 17, 9, 0, 0, 0, time.UTC)

type memCache map[string]string

func (m memCache) GetSetting(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (m memCache) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

func rateServer(t *testing.T, body string, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Query().Get("from") != "EUR" || r.URL.Query().Get("to") != "USD" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newConverter(cache Cache, url string) *Converter {
	return NewConverter(cache, url, "eur", "usd", WithClock(func() time.Time { return today }))
}

func TestRateFetchesAndCaches(t *testing.T) {
	srv, hits := rateServer(t, `{"base":"EUR","rates":{"USD":1.0925}}`, http.StatusOK)
	cache := memCache{}
	c := newConverter(cache, srv.URL)

	if got := c.Rate(context.Background()); got != 1.0925 {
		t.Fatalf("rate = %v, want 1.0925", got)
	}
	if cache[rateKey] != "1.0925" || cache[rateDateKey] != "2024-01-17" {
		t.Fatalf("cache = %v", cache)
	}

	// Second call the same day is served from cache.
	c.Rate(context.Background())
	if n := atomic.LoadInt32(hits); n != 1 {
		t.Fatalf("endpoint hit %d times, want 1", n)
	}
}

func TestRateRefetchesStaleCache(t *testing.T) {
	srv, hits := rateServer(t, `{"rates":{"USD":1.1}}`, http.StatusOK)
	cache := memCache{rateKey: "1.05", rateDateKey: "2024-01-16"}
	c := newConverter(cache, srv.URL)

	if got := c.Rate(context.Background()); got != 1.1 {
		t.Fatalf("rate = %v, want 1.1", got)
	}
	if atomic.LoadInt32(hits) != 1 {
		t.Fatal("stale cache should trigger a fetch")
	}
}

func TestRateFallsBackToStaleCache(t *testing.T) {
	srv, _ := rateServer(t, `oops`, http.StatusBadGateway)
	cache := memCache{rateKey: "1.05", rateDateKey: "2024-01-10"}
	c := newConverter(cache, srv.URL)

	if got := c.Rate(context.Background()); got != 1.05 {
		t.Fatalf("rate = %v, want stale 1.05", got)
	}
	if cache[rateDateKey] != "2024-01-10" {
		t.Fatal("failed fetch should not touch the cache")
	}
}

func TestRateFallsBackToFixedRate(t *testing.T) {
	tests := []struct {
		name, body string
		status     int
	}{
		{"server error", `{}`, http.StatusInternalServerError},
		{"bad json", `{"rates":`, http.StatusOK},
		{"missing target", `{"rates":{"GBP":0.86}}`, http.StatusOK},
		{"zero rate", `{"rates":{"USD":0}}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := rateServer(t, tt.body, tt.status)
			c := newConverter(memCache{}, srv.URL)
			if got := c.Rate(context.Background()); got != DefaultFallbackRate {
				t.Fatalf("rate = %v, want fallback", got)
			}
		})
	}
}

func TestRateCustomFallbackWithoutEndpoint(t *testing.T) {
	c := NewConverter(nil, "", "EUR", "USD", WithFallback(1.2))
	if got := c.Rate(context.Background()); got != 1.2 {
		t.Fatalf("rate = %v, want 1.2", got)
	}
}

func TestRateSameCurrency(t *testing.T) {
	c := NewConverter(memCache{}, "http://127.0.0.1:0", "USD", "usd")
	if got := c.Rate(context.Background()); got != 1 {
		t.Fatalf("rate = %v, want 1", got)
	}
}

// ============================================================
// Decorator
// ============================================================

type field struct{ text string }

func (f *field) SetText(s string) { f.text = s }

type page map[string]*field

func (p page) Field(id string) (dashboard.Field, bool) {
	f, ok := p[id]
	if !ok {
		return nil, false
	}
	return f, true
}

func (p page) Surface(string) (dashboard.Surface, bool) { return nil, false }

func newPage() page {
	p := page{}
	for _, id := range FieldIDs {
		p[id] = &field{}
	}
	return p
}

func TestDecoratorWritesConvertedTotals(t *testing.T) {
	d := NewDecorator("EUR", "USD")
	d.SetRate(1.5)
	p := newPage()

	d.Decorate(dashboard.Views{Summary: dashboard.Summary{
		TotalRevenue:  1000,
		TotalExpenses: 200,
		NetIncome:     800,
		AvgHourlyRate: 50,
	}}, p)

	want := map[string]string{
		FieldRevenue:       "$1,500.00",
		FieldExpenses:      "$300.00",
		FieldNetIncome:     "$1,200.00",
		FieldAvgHourlyRate: "$75.00",
		FieldRate:          "1 EUR = 1.5000 USD",
	}
	for id, w := range want {
		if p[id].text != w {
			t.Fatalf("%s = %q, want %q", id, p[id].text, w)
		}
	}
}

func TestDecoratorFollowsTargetCurrency(t *testing.T) {
	d := NewDecorator("EUR", "GBP")
	d.SetRate(0.85)
	p := newPage()
	d.Decorate(dashboard.Views{Summary: dashboard.Summary{TotalRevenue: 100}}, p)

	if got := p[FieldRate].text; got != "1 EUR = 0.8500 GBP" {
		t.Fatalf("rate = %q", got)
	}
	for _, id := range FieldIDs {
		if !strings.HasPrefix(id, "fx-") {
			t.Errorf("field id %q should not name a currency", id)
		}
	}
}

func TestDecoratorDisabledBlanksFields(t *testing.T) {
	d := NewDecorator("EUR", "USD")
	d.SetRate(1.5)
	p := newPage()
	d.Decorate(dashboard.Views{Summary: dashboard.Summary{TotalRevenue: 10}}, p)

	d.SetEnabled(false)
	d.Decorate(dashboard.Views{Summary: dashboard.Summary{TotalRevenue: 10}}, p)
	for _, id := range FieldIDs {
		if p[id].text != "" {
			t.Fatalf("%s = %q, want blank", id, p[id].text)
		}
	}
}

func TestDecoratorRunsThroughRenderer(t *testing.T) {
	d := NewDecorator("EUR", "USD")
	d.SetRate(2)
	p := newPage()
	r := dashboard.NewRenderer(p, dashboard.NewRegistry(nil), dashboard.NewFormatter("EUR"), d)

	if err := r.Render(dashboard.Views{NoData: true}); err != nil {
		t.Fatal(err)
	}
	if p[FieldRevenue].text != "$0.00" {
		t.Fatalf("revenue = %q", p[FieldRevenue].text)
	}
}
