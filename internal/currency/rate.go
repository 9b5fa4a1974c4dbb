// Package currency converts dashboard totals into a second display currency.
package currency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/sadopc/billr/internal/log"
)

const (
	rateKey     = "fx_rate"
	rateDateKey = "fx_rate_date"
	dateLayout  = "2006-01-02"

	DefaultFallbackRate = 1.08
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Cache persists the last fetched rate. The store's settings table satisfies it.
type Cache interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

type Converter struct {
	cache    Cache
	client   *http.Client
	url      string
	base     string
	target   string
	fallback float64
	logger   *log.Logger
	now      func() time.Time
}

type Option func(*Converter)

func WithHTTPClient(c *http.Client) Option {
	return func(cv *Converter) { cv.client = c }
}

func WithLogger(l *log.Logger) Option {
	return func(cv *Converter) { cv.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(cv *Converter) { cv.now = now }
}

// WithFallback sets the rate used when nothing can be fetched or read from cache.
func WithFallback(rate float64) Option {
	return func(cv *Converter) {
		if rate > 0 {
			cv.fallback = rate
		}
	}
}

// NewConverter builds a converter from base to target. url is queried with
// base and target appended as query parameters.
func NewConverter(cache Cache, url, base, target string, opts ...Option) *Converter {
	c := &Converter{
		cache:    cache,
		client:   &http.Client{Timeout: 5 * time.Second},
		url:      url,
		base:     strings.ToUpper(base),
		target:   strings.ToUpper(target),
		fallback: DefaultFallbackRate,
		logger:   log.Discard(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Converter) Base() string   { return c.base }
func (c *Converter) Target() string { return c.target }

// Rate returns the base to target rate. A value cached today is returned as
// is; otherwise the endpoint is queried. On failure the stale cached value is
// used, then the fallback rate.
func (c *Converter) Rate(ctx context.Context) float64 {
	if c.base == c.target {
		return 1
	}
	cached, cachedDay, ok := c.cached()
	today := c.now().Format(dateLayout)
	if ok && cachedDay == today {
		return cached
	}

	rate, err := c.fetch(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "exchange rate fetch failed", "error", err, "base", c.base, "target", c.target)
		if ok {
			return cached
		}
		return c.fallback
	}

	if err := c.store(rate, today); err != nil {
		c.logger.WarnContext(ctx, "exchange rate not cached", "error", err)
	}
	c.logger.Debug("exchange rate fetched", "rate", rate)
	return rate
}

func (c *Converter) cached() (float64, string, bool) {
	if c.cache == nil {
		return 0, "", false
	}
	v, err := c.cache.GetSetting(rateKey)
	if err != nil {
		return 0, "", false
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil || rate <= 0 {
		return 0, "", false
	}
	day, _ := c.cache.GetSetting(rateDateKey)
	return rate, day, true
}

func (c *Converter) store(rate float64, day string) error {
	if c.cache == nil {
		return nil
	}
	if err := c.cache.SetSetting(rateKey, strconv.FormatFloat(rate, 'f', -1, 64)); err != nil {
		return err
	}
	return c.cache.SetSetting(rateDateKey, day)
}

type rateResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

var errNoRate = errors.New("rate missing from response")

func (c *Converter) fetch(ctx context.Context) (float64, error) {
	if c.url == "" {
		return 0, errors.New("no rate endpoint configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	q := req.URL.Query()
	q.Set("from", c.base)
	q.Set("to", c.target)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get rate: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read rate: %w", err)
	}

	var r rateResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return 0, fmt.Errorf("decode rate: %w", err)
	}
	rate, ok := r.Rates[c.target]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%s: %w", c.target, errNoRate)
	}
	return rate, nil
}
