package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeRemote(t *testing.T) {
	var gotAuth string
	var gotReq scrapeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"markdown": "# Supply Chain Update\n\nShipments resumed."},
		})
	}))
	defer server.Close()

	client := NewClient("fc-test-key", WithBaseURL(server.URL))
	content, err := client.Scrape(context.Background(), "https://example.com/news", 0)
	require.NoError(t, err)

	assert.Equal(t, "Bearer fc-test-key", gotAuth)
	assert.Equal(t, "https://example.com/news", gotReq.URL)
	assert.True(t, gotReq.OnlyMainContent)
	assert.Contains(t, content, "Shipments resumed")
}

func TestScrapeRemoteFlatResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"markdown": "flat body"})
	}))
	defer server.Close()

	client := NewClient("fc-test-key", WithBaseURL(server.URL))
	content, err := client.Scrape(context.Background(), "https://example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, "flat body", content)
}

func TestScrapeTruncation(t *testing.T) {
	long := strings.Repeat("a", 500)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"markdown": long})
	}))
	defer server.Close()

	client := NewClient("fc-test-key", WithBaseURL(server.URL))
	content, err := client.Scrape(context.Background(), "https://example.com", 100)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(content, "\n\n...[truncated]"))
	assert.Equal(t, long[:100], strings.TrimSuffix(content, "\n\n...[truncated]"))
}

func TestScrapeRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "payment required", http.StatusPaymentRequired)
	}))
	defer server.Close()

	client := NewClient("fc-test-key", WithBaseURL(server.URL))
	_, err := client.Scrape(context.Background(), "https://example.com", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "402")
}

func TestScrapeLocalFallback(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><style>body{}</style></head><body>
			<nav>Menu</nav>
			<article><h1>Fab Expansion</h1><p>New capacity comes online in Q3.</p></article>
			<footer>Copyright</footer>
		</body></html>`)
	}))
	defer page.Close()

	// no API key selects the local extractor
	client := NewClient("")
	content, err := client.Scrape(context.Background(), page.URL, 0)
	require.NoError(t, err)

	assert.Contains(t, content, "Fab Expansion")
	assert.Contains(t, content, "New capacity comes online in Q3.")
	assert.NotContains(t, content, "Menu")
	assert.NotContains(t, content, "Copyright")
}
