// Package fmp is a typed client for the Financial Modeling Prep API.
// The provider has two API generations in use: the "stable" surface and the
// legacy "v3" surface. The client owns base-path selection per resource and
// appends the credential as a query parameter; callers never build provider
// URLs themselves.
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/chainscan/internal/models"
)

const (
	// DefaultStableBaseURL is the base URL for the stable API surface.
	DefaultStableBaseURL = "https://financialmodelingprep.com/stable"

	// DefaultV3BaseURL is the base URL for the legacy v3 API surface.
	DefaultV3BaseURL = "https://financialmodelingprep.com/api/v3"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 10

	// transcriptScanLimit caps transcript excerpts embedded in scan context.
	transcriptScanLimit = 6000
)

// noCachePaths are realtime feeds that must never be served from cache.
var noCachePaths = map[string]bool{
	"/news/stock-latest":      true,
	"/news/general-latest":    true,
	"/insider-trading/latest": true,
	"/senate-latest":          true,
	"/house-latest":           true,
}

// Client is an FMP API client with response caching and rate limiting.
type Client struct {
	stableBaseURL string
	v3BaseURL     string
	apiKey        string
	httpClient    *http.Client
	logger        arbor.ILogger
	limiter       *rate.Limiter
	cache         *Cache
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithStableBaseURL sets a custom stable-surface base URL.
func WithStableBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.stableBaseURL = baseURL
	}
}

// WithV3BaseURL sets a custom v3-surface base URL.
func WithV3BaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.v3BaseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithCache sets the injected response cache.
func WithCache(cache *Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new FMP API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		stableBaseURL: DefaultStableBaseURL,
		v3BaseURL:     DefaultV3BaseURL,
		apiKey:        apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cache == nil {
		c.cache = NewCache(5 * time.Minute)
	}

	return c
}

// Fetch retrieves one resource from the provider. A non-2xx response is
// logged (status plus truncated body, never the credential) and returned as
// nil data with a nil error: callers must treat nil as "no data for this
// resource", not a fatal condition. Request-construction and transport
// failures are returned as errors.
func (c *Client) Fetch(ctx context.Context, path string, params url.Values, opts ...FetchOption) (json.RawMessage, error) {
	options := &fetchOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if noCachePaths[path] {
		options.noCache = true
	}

	surface := "stable"
	baseURL := c.stableBaseURL
	if options.v3 {
		surface = "v3"
		baseURL = c.v3BaseURL
	}

	if params == nil {
		params = url.Values{}
	}

	cacheKey := surface + ":" + path + "?" + params.Encode()
	if !options.noCache {
		if data, ok := c.cache.Get(cacheKey); ok {
			return data, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter interrupted: %w", err)
	}

	// Credential is appended after the cache key is built so it never
	// appears in cache keys or logs.
	reqParams := url.Values{}
	for k, vs := range params {
		reqParams[k] = vs
	}
	reqParams.Set("apikey", c.apiKey)

	reqURL := fmt.Sprintf("%s%s?%s", baseURL, path, reqParams.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("surface", surface).
			Str("path", path).
			Msg("FMP API request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		if c.logger != nil {
			c.logger.Warn().
				Int("status", resp.StatusCode).
				Str("path", path).
				Str("body", string(body)).
				Msg("FMP API returned non-2xx, treating as no data")
		}
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if !options.noCache {
		c.cache.Set(cacheKey, data)
	}

	return data, nil
}

// unwrapFirst decodes a payload whose shape is "a single-element array" into
// dst, unwrapping to the single object. Absent or empty payloads leave dst
// untouched and return false.
func unwrapFirst(data json.RawMessage, dst interface{}) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		// Some endpoints return a bare object rather than an array.
		if err := json.Unmarshal(data, dst); err != nil {
			return false, fmt.Errorf("failed to decode response: %w", err)
		}
		return true, nil
	}
	if len(items) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(items[0], dst); err != nil {
		return false, fmt.Errorf("failed to decode response element: %w", err)
	}
	return true, nil
}

// GetQuote retrieves the latest quote for a symbol, or nil when unavailable.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	data, err := c.Fetch(ctx, "/quote", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	var quote models.Quote
	ok, err := unwrapFirst(data, &quote)
	if err != nil || !ok {
		return nil, err
	}
	return &quote, nil
}

// GetProfile retrieves the company profile for a symbol.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*models.Profile, error) {
	data, err := c.Fetch(ctx, "/profile", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	var profile models.Profile
	ok, err := unwrapFirst(data, &profile)
	if err != nil || !ok {
		return nil, err
	}
	return &profile, nil
}

// GetKeyMetricsTTM retrieves trailing-twelve-month key metrics for a symbol.
func (c *Client) GetKeyMetricsTTM(ctx context.Context, symbol string) (*models.KeyMetrics, error) {
	data, err := c.Fetch(ctx, "/key-metrics", url.Values{"symbol": {symbol}, "period": {"ttm"}})
	if err != nil {
		return nil, err
	}
	var metrics models.KeyMetrics
	ok, err := unwrapFirst(data, &metrics)
	if err != nil || !ok {
		return nil, err
	}
	return &metrics, nil
}

// GetIncomeStatement retrieves the most recent income statement for a symbol.
func (c *Client) GetIncomeStatement(ctx context.Context, symbol string) (*models.IncomeStatement, error) {
	data, err := c.Fetch(ctx, "/income-statement", url.Values{"symbol": {symbol}, "limit": {"1"}})
	if err != nil {
		return nil, err
	}
	var statement models.IncomeStatement
	ok, err := unwrapFirst(data, &statement)
	if err != nil || !ok {
		return nil, err
	}
	return &statement, nil
}

// GetBalanceSheet retrieves the most recent balance sheet for a symbol.
func (c *Client) GetBalanceSheet(ctx context.Context, symbol string) (*models.BalanceSheet, error) {
	data, err := c.Fetch(ctx, "/balance-sheet-statement", url.Values{"symbol": {symbol}, "limit": {"1"}})
	if err != nil {
		return nil, err
	}
	var sheet models.BalanceSheet
	ok, err := unwrapFirst(data, &sheet)
	if err != nil || !ok {
		return nil, err
	}
	return &sheet, nil
}

// GetEarningsTranscript retrieves the earnings call transcript text for the
// given fiscal year and quarter, truncated to maxChars with a marker when
// longer. Returns "" when no transcript is available.
func (c *Client) GetEarningsTranscript(ctx context.Context, symbol string, year, quarter, maxChars int) (string, error) {
	params := url.Values{
		"symbol":  {symbol},
		"year":    {strconv.Itoa(year)},
		"quarter": {strconv.Itoa(quarter)},
	}
	data, err := c.Fetch(ctx, "/earning-call-transcript", params)
	if err != nil {
		return "", err
	}

	var entry struct {
		Content string `json:"content"`
	}
	ok, err := unwrapFirst(data, &entry)
	if err != nil || !ok {
		return "", err
	}

	return Truncate(entry.Content, maxChars), nil
}

// FetchCompanyData builds the per-run financial snapshot for one company.
// Each resource degrades independently to nil/empty; a company with zero
// available data still yields a valid (mostly empty) snapshot.
func (c *Client) FetchCompanyData(ctx context.Context, ticker, companyID string) *models.CompanyFinancials {
	result := &models.CompanyFinancials{
		Ticker:    ticker,
		CompanyID: companyID,
	}

	// Target the most recent quarter likely to have a published transcript:
	// one behind the quarter containing the current month.
	now := time.Now().UTC()
	year := now.Year()
	quarter := (int(now.Month())+1)/3 - 1
	if quarter < 1 {
		quarter = 1
	}

	type step func()
	steps := []step{
		func() {
			quote, err := c.GetQuote(ctx, ticker)
			if err != nil {
				c.warn(ticker, "quote", err)
				return
			}
			result.Quote = quote
		},
		func() {
			metrics, err := c.GetKeyMetricsTTM(ctx, ticker)
			if err != nil {
				c.warn(ticker, "key-metrics", err)
				return
			}
			result.KeyMetrics = metrics
		},
		func() {
			statement, err := c.GetIncomeStatement(ctx, ticker)
			if err != nil {
				c.warn(ticker, "income-statement", err)
				return
			}
			result.IncomeStatement = statement
		},
		func() {
			transcript, err := c.GetEarningsTranscript(ctx, ticker, year, quarter, transcriptScanLimit)
			if err != nil {
				c.warn(ticker, "earning-call-transcript", err)
				return
			}
			result.Transcript = transcript
		},
	}

	done := make(chan struct{}, len(steps))
	for _, s := range steps {
		go func(s step) {
			s()
			done <- struct{}{}
		}(s)
	}
	for range steps {
		<-done
	}

	return result
}

// GetSectorPerformance retrieves sector performance from the v3 surface.
func (c *Client) GetSectorPerformance(ctx context.Context) (json.RawMessage, error) {
	return c.Fetch(ctx, "/sector-performance", nil, WithV3())
}

// GetHistoricalPrices retrieves end-of-day price history for a symbol.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, limit int) (json.RawMessage, error) {
	params := url.Values{"symbol": {symbol}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return c.Fetch(ctx, "/historical-price-eod/light", params)
}

// GetStockNews retrieves the latest stock news, bypassing the cache.
func (c *Client) GetStockNews(ctx context.Context, limit int) (json.RawMessage, error) {
	return c.Fetch(ctx, "/news/stock-latest", url.Values{"limit": {strconv.Itoa(limit)}})
}

// Truncate caps s at maxChars, appending a truncation marker when cut.
func Truncate(s string, maxChars int) string {
	if maxChars > 0 && len(s) > maxChars {
		return s[:maxChars] + "\n...[truncated]"
	}
	return s
}

func (c *Client) warn(ticker, resource string, err error) {
	if c.logger != nil {
		c.logger.Warn().
			Err(err).
			Str("ticker", ticker).
			Str("resource", resource).
			Msg("FMP resource fetch failed")
	}
}
