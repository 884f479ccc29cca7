// Package scrape extracts main-content text from arbitrary URLs. A remote
// scrape provider is used when a credential is configured; otherwise a local
// goquery/markdown extractor fetches and converts the page directly.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultBaseURL is the Firecrawl API base URL.
const DefaultBaseURL = "https://api.firecrawl.dev"

// DefaultMaxChars caps extracted page content handed to the model.
const DefaultMaxChars = 8000

// Client scrapes pages via the remote provider or the local extractor.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     arbor.ILogger
	extractor  *Extractor
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom provider base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithUserAgent sets the user agent for local extraction fetches.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new scrape client. An empty apiKey selects the local
// extractor for all requests.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.extractor = NewExtractor(c.httpClient, c.userAgent, c.logger)
	return c
}

type scrapeRequest struct {
	URL             string   `json:"url"`
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type scrapeResponse struct {
	Data struct {
		Markdown string `json:"markdown"`
	} `json:"data"`
	Markdown string `json:"markdown"`
}

// Scrape extracts the main-content markdown of targetURL, truncated to
// maxChars with a marker when longer.
func (c *Client) Scrape(ctx context.Context, targetURL string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var markdown string
	var err error
	if c.apiKey != "" {
		markdown, err = c.scrapeRemote(ctx, targetURL)
	} else {
		markdown, err = c.extractor.Extract(ctx, targetURL)
	}
	if err != nil {
		return "", err
	}

	if len(markdown) > maxChars {
		markdown = markdown[:maxChars] + "\n\n...[truncated]"
	}
	return markdown, nil
}

func (c *Client) scrapeRemote(ctx context.Context, targetURL string) (string, error) {
	payload, err := json.Marshal(scrapeRequest{
		URL:             targetURL,
		Formats:         []string{"markdown"},
		OnlyMainContent: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode scrape request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/scrape", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create scrape request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("scrape request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return "", fmt.Errorf("scrape provider returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode scrape response: %w", err)
	}

	if decoded.Data.Markdown != "" {
		return decoded.Data.Markdown, nil
	}
	return decoded.Markdown, nil
}
