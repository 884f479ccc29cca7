// Package search wraps the Perplexity web-search API for recency-filtered,
// citation-bearing answers about supply-chain risk.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultBaseURL is the Perplexity API base URL.
const DefaultBaseURL = "https://api.perplexity.ai"

// Result is one grounded search answer with its citations.
type Result struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// Client is a Perplexity chat-completions client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	recency    string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithModel sets the search model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithRecency sets the search_recency_filter value.
func WithRecency(recency string) ClientOption {
	return func(c *Client) {
		c.recency = recency
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

// NewClient creates a new search client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   "sonar",
		recency: "month",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether a provider credential is present.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Recency  string        `json:"search_recency_filter,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Query asks the search provider a free-form question and returns the
// answer with citations.
func (c *Client) Query(ctx context.Context, system, query string, recencyFiltered bool) (*Result, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("search provider credential not configured")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: query},
		},
	}
	if recencyFiltered {
		reqBody.Recency = c.recency
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("search provider returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	result := &Result{Citations: decoded.Citations}
	if len(decoded.Choices) > 0 {
		result.Answer = decoded.Choices[0].Message.Content
	}
	return result, nil
}

// SupplyChainNews searches for recent supply-chain risk context for one
// company and returns the answer concatenated with its citation list.
// Any failure degrades to an empty string: the scan proceeds without news
// enrichment when the provider is unavailable or unconfigured.
func (c *Client) SupplyChainNews(ctx context.Context, companyName, ticker string) string {
	query := fmt.Sprintf(
		"%s (%s) supply chain risks, constraints, bottlenecks, capacity issues. "+
			"Focus on: single-source dependencies, lead time changes, capacity utilization, demand/supply imbalances.",
		companyName, ticker)

	result, err := c.Query(ctx, "Provide concise factual information about supply chain risks.", query, true)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Err(err).Str("ticker", ticker).Msg("Supply-chain news search failed")
		}
		return ""
	}

	return fmt.Sprintf("%s\n\nSources: %s", result.Answer, strings.Join(result.Citations, ", "))
}
