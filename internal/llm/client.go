// Package llm drives tool-calling conversations against an OpenAI-style
// model gateway: a thin chat-completions client, a fixed toolbox backed by
// the market-data, search and scrape providers, and a bounded orchestration
// loop for the structured-analysis and interactive-chat paths.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// DefaultBaseURL is the model gateway base URL.
const DefaultBaseURL = "https://ai.gateway.lovable.dev/v1"

// DefaultModel is the model routed through the gateway.
const DefaultModel = "google/gemini-3-flash-preview"

// DefaultTimeout bounds a single gateway call. Tool-loop turns are slow, so
// this is far longer than the data-provider timeouts.
const DefaultTimeout = 120 * time.Second

var (
	// ErrRateLimited is returned when the gateway responds 429.
	ErrRateLimited = errors.New("rate limit exceeded, please try again shortly")

	// ErrQuotaExhausted is returned when the gateway responds 402.
	ErrQuotaExhausted = errors.New("AI credits exhausted, add credits to the workspace")

	// ErrTooManyIterations is returned when a tool loop hits its ceiling
	// without producing a final answer.
	ErrTooManyIterations = errors.New("too many tool iterations")
)

// Client is a chat-completions client for the model gateway.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     arbor.ILogger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom gateway base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithModel sets the model identifier sent on every request.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
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

// NewClient creates a new gateway client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Chat sends a non-streaming chat-completions request.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	req.Stream = false
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return &decoded, nil
}

// Stream sends a streaming chat-completions request and relays the raw SSE
// body to w line by line, flushing after each line when w supports it.
func (c *Client) Stream(ctx context.Context, req ChatRequest, w io.Writer) error {
	req.Stream = true
	resp, err := c.post(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	flusher, _ := w.(http.Flusher)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if _, err := fmt.Fprintf(w, "%s\n", scanner.Text()); err != nil {
			return fmt.Errorf("failed to relay stream: %w", err)
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("gateway stream read failed: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, chatReq ChatRequest) (*http.Response, error) {
	if chatReq.Model == "" {
		chatReq.Model = c.model
	}

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, ErrQuotaExhausted
	}

	if c.logger != nil {
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Gateway returned error")
	}
	return nil, fmt.Errorf("AI service error: status %d", resp.StatusCode)
}
