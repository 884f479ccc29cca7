package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractHTMLStripsChrome(t *testing.T) {
	extractor := NewExtractor(nil, "", nil)
	markdown, err := extractor.ExtractHTML(`<html><body>
		<script>alert(1)</script>
		<nav>Home | About</nav>
		<main><h2>Earnings</h2><p>Revenue grew 12% year over year.</p></main>
		<aside>Related links</aside>
	</body></html>`, "https://example.com")
	require.NoError(t, err)

	assert.Contains(t, markdown, "Earnings")
	assert.Contains(t, markdown, "Revenue grew 12% year over year.")
	assert.NotContains(t, markdown, "alert(1)")
	assert.NotContains(t, markdown, "Home | About")
	assert.NotContains(t, markdown, "Related links")
}

func TestExtractHTMLBodyFallback(t *testing.T) {
	extractor := NewExtractor(nil, "", nil)
	markdown, err := extractor.ExtractHTML(`<html><body><p>Plain page without landmarks.</p></body></html>`, "https://example.com")
	require.NoError(t, err)
	assert.Contains(t, markdown, "Plain page without landmarks.")
}

func TestExtractSetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, "<html><body><main><p>ok</p></main></body></html>")
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client(), "chainscan/1.0", nil)
	_, err := extractor.Extract(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "chainscan/1.0", gotUA)
}

func TestExtractNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	extractor := NewExtractor(server.Client(), "", nil)
	_, err := extractor.Extract(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
