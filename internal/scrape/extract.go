package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// maxBodySize caps fetched page bodies at 10MB.
const maxBodySize = 10 * 1024 * 1024

// Extractor fetches a page and converts its main content to markdown
// locally, without the remote scrape provider.
type Extractor struct {
	httpClient *http.Client
	userAgent  string
	logger     arbor.ILogger
}

// NewExtractor creates a local main-content extractor.
func NewExtractor(httpClient *http.Client, userAgent string, logger arbor.ILogger) *Extractor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Extractor{
		httpClient: httpClient,
		userAgent:  userAgent,
		logger:     logger,
	}
}

// Extract fetches targetURL and returns its main content as markdown.
func (e *Extractor) Extract(ctx context.Context, targetURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("page fetch returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read page body: %w", err)
	}

	return e.ExtractHTML(string(body), targetURL)
}

// ExtractHTML converts raw HTML to main-content markdown.
func (e *Extractor) ExtractHTML(html, sourceURL string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Strip chrome before conversion
	doc.Find("script, style, nav, footer, aside, header, form, iframe, noscript").Remove()

	content := doc.Find("main, article, [role='main']").First()
	var selectionHTML string
	if content.Length() > 0 {
		selectionHTML, err = content.Html()
	} else {
		selectionHTML, err = doc.Find("body").Html()
	}
	if err != nil {
		return "", fmt.Errorf("failed to serialize content: %w", err)
	}

	mdConverter := md.NewConverter(sourceURL, true, nil)
	markdown, err := mdConverter.ConvertString(selectionHTML)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		// Fallback when conversion produces nothing usable
		markdown = strings.TrimSpace(doc.Text())
	}

	return markdown, nil
}
