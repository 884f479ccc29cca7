package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/fmp"
)

// defaultProxyEndpoints are fetched when the request names none.
var defaultProxyEndpoints = []string{"quote", "profile", "income-statement", "balance-sheet-statement", "key-metrics"}

// MarketFetcher is the raw market-data surface behind the proxy endpoint.
type MarketFetcher interface {
	Fetch(ctx context.Context, path string, params url.Values, opts ...fmp.FetchOption) (json.RawMessage, error)
}

// FMPHandler proxies batch market-data lookups for the dashboard, keeping
// the provider credential server-side.
type FMPHandler struct {
	market MarketFetcher
	logger arbor.ILogger
}

// NewFMPHandler creates a new FMPHandler instance
func NewFMPHandler(market MarketFetcher, logger arbor.ILogger) *FMPHandler {
	return &FMPHandler{
		market: market,
		logger: logger,
	}
}

type fmpProxyRequest struct {
	Tickers   []string `json:"tickers"`
	Endpoints []string `json:"endpoints"`
}

// ProxyHandler fans one request out over tickers x endpoints and returns
// results keyed by ticker then endpoint. POST /api/fmp
func (h *FMPHandler) ProxyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req fmpProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "tickers array required")
		return
	}
	endpoints := req.Endpoints
	if len(endpoints) == 0 {
		endpoints = defaultProxyEndpoints
	}

	results := make(map[string]map[string]json.RawMessage)
	var mu sync.Mutex
	var wg sync.WaitGroup

	put := func(ticker, endpoint string, data json.RawMessage) {
		mu.Lock()
		defer mu.Unlock()
		if results[ticker] == nil {
			results[ticker] = make(map[string]json.RawMessage)
		}
		results[ticker][endpoint] = data
	}

	for _, endpoint := range endpoints {
		switch endpoint {
		case "quote", "profile":
			// the provider accepts comma-separated symbol lists here
			wg.Add(1)
			go func(endpoint string) {
				defer wg.Done()
				params := url.Values{"symbol": {strings.Join(req.Tickers, ",")}}
				data, err := h.market.Fetch(r.Context(), "/"+endpoint, params)
				if err != nil || data == nil {
					return
				}
				for symbol, item := range splitBySymbol(data) {
					put(symbol, endpoint, item)
				}
			}(endpoint)

		case "income-statement", "balance-sheet-statement", "cash-flow-statement":
			for _, ticker := range req.Tickers {
				wg.Add(1)
				go func(endpoint, ticker string) {
					defer wg.Done()
					params := url.Values{"symbol": {ticker}, "limit": {"1"}}
					data, err := h.market.Fetch(r.Context(), "/"+endpoint, params)
					if err != nil || data == nil {
						return
					}
					put(ticker, endpoint, firstElement(data))
				}(endpoint, ticker)
			}

		case "key-metrics":
			for _, ticker := range req.Tickers {
				wg.Add(1)
				go func(ticker string) {
					defer wg.Done()
					params := url.Values{"symbol": {ticker}, "period": {"ttm"}}
					data, err := h.market.Fetch(r.Context(), "/key-metrics", params)
					if err != nil || data == nil {
						return
					}
					put(ticker, "key-metrics", firstElement(data))
				}(ticker)
			}
		}
	}

	wg.Wait()
	WriteJSON(w, http.StatusOK, results)
}

// splitBySymbol fans a multi-symbol array response out by each element's
// symbol field.
func splitBySymbol(data json.RawMessage) map[string]json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}

	out := make(map[string]json.RawMessage, len(items))
	for _, item := range items {
		var probe struct {
			Symbol string `json:"symbol"`
		}
		if err := json.Unmarshal(item, &probe); err != nil || probe.Symbol == "" {
			continue
		}
		out[probe.Symbol] = item
	}
	return out
}

// firstElement unwraps a single-element array; bare objects pass through.
func firstElement(data json.RawMessage) json.RawMessage {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
		return data
	}
	return items[0]
}
