package fmp

import "fmt"

// APIError represents an error response from the FMP API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error [%d] on %s: %s", e.StatusCode, e.Endpoint, e.Message)
}

// fetchOptions control how a single resource fetch behaves.
type fetchOptions struct {
	v3      bool // use the legacy v3 API surface instead of stable
	noCache bool
}

// FetchOption configures a Fetch call.
type FetchOption func(*fetchOptions)

// WithV3 routes the request to the legacy v3 API surface.
func WithV3() FetchOption {
	return func(o *fetchOptions) {
		o.v3 = true
	}
}

// WithoutCache bypasses the response cache for this request.
func WithoutCache() FetchOption {
	return func(o *fetchOptions) {
		o.noCache = true
	}
}
