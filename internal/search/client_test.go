package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplyChainNews_ConcatenatesAnswerAndCitations(t *testing.T) {
	var gotRecency string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotRecency, _ = body["search_recency_filter"].(string)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "HBM supply remains tight."}},
			},
			"citations": []string{"https://example.com/a", "https://example.com/b"},
		})
	}))
	defer srv.Close()

	client := NewClient("px-key", WithBaseURL(srv.URL))
	news := client.SupplyChainNews(context.Background(), "NVIDIA", "NVDA")

	assert.Equal(t, "month", gotRecency)
	assert.Contains(t, news, "HBM supply remains tight.")
	assert.Contains(t, news, "Sources: https://example.com/a, https://example.com/b")
}

func TestSupplyChainNews_DegradesToEmptyOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("px-key", WithBaseURL(srv.URL))
	news := client.SupplyChainNews(context.Background(), "NVIDIA", "NVDA")

	assert.Empty(t, news)
}

func TestSupplyChainNews_UnconfiguredIsEmpty(t *testing.T) {
	client := NewClient("")
	assert.False(t, client.Configured())

	news := client.SupplyChainNews(context.Background(), "NVIDIA", "NVDA")
	assert.Empty(t, news)
}

func TestQuery_ErrorsOnNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient("px-key", WithBaseURL(srv.URL))
	_, err := client.Query(context.Background(), "system", "query", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
