package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/models"
	"github.com/ternarybob/chainscan/internal/search"
)

// transcriptToolLimit caps transcript text returned through the
// get_earnings_transcript tool.
const transcriptToolLimit = 12000

// scrapePageLimit caps page content returned through the scrape_page tool.
const scrapePageLimit = 8000

// MarketData is the market-data surface the toolbox fetches from.
type MarketData interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetProfile(ctx context.Context, symbol string) (*models.Profile, error)
	GetKeyMetricsTTM(ctx context.Context, symbol string) (*models.KeyMetrics, error)
	GetIncomeStatement(ctx context.Context, symbol string) (*models.IncomeStatement, error)
	GetBalanceSheet(ctx context.Context, symbol string) (*models.BalanceSheet, error)
	GetEarningsTranscript(ctx context.Context, symbol string, year, quarter, maxChars int) (string, error)
}

// Searcher is the supplementary-search surface behind web_search.
type Searcher interface {
	Configured() bool
	Query(ctx context.Context, system, query string, recencyFiltered bool) (*search.Result, error)
}

// Scraper is the page-extraction surface behind scrape_page.
type Scraper interface {
	Scrape(ctx context.Context, targetURL string, maxChars int) (string, error)
}

// Toolbox executes the fixed set of tools the model may call. Failures are
// serialized as an {"error": message} JSON string rather than returned as
// errors, so one failing tool never aborts a conversation turn.
type Toolbox struct {
	market  MarketData
	search  Searcher
	scraper Scraper
	logger  arbor.ILogger
}

// NewToolbox creates a toolbox over the given providers. Any provider may be
// nil; its tools then report a not-configured error to the model.
func NewToolbox(market MarketData, searcher Searcher, scraper Scraper, logger arbor.ILogger) *Toolbox {
	return &Toolbox{
		market:  market,
		search:  searcher,
		scraper: scraper,
		logger:  logger,
	}
}

// Definitions returns the research tool declarations sent to the model.
func (t *Toolbox) Definitions() []Tool {
	return []Tool{
		{
			Type: "function",
			Function: ToolFunction{
				Name: "get_stock_data",
				Description: "Fetch live financial data for a stock ticker: price, market cap, revenue, earnings, " +
					"balance sheet, key metrics. Use when the user asks about a specific company's financials.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"ticker": {"type": "string", "description": "Stock ticker symbol, e.g. AAPL"}
					},
					"required": ["ticker"]
				}`),
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name: "get_earnings_transcript",
				Description: "Fetch the earnings call transcript for a ticker and fiscal quarter. " +
					"Long transcripts are truncated.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"ticker": {"type": "string", "description": "Stock ticker symbol"},
						"year": {"type": "integer", "description": "Fiscal year, e.g. 2026"},
						"quarter": {"type": "integer", "description": "Fiscal quarter, 1-4"}
					},
					"required": ["ticker", "year", "quarter"]
				}`),
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name: "web_search",
				Description: "Search the web for real-time information about stocks, markets, earnings, news, " +
					"SEC filings. Returns grounded results with citations.",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"query": {"type": "string", "description": "Search query"}
					},
					"required": ["query"]
				}`),
			},
		},
		{
			Type: "function",
			Function: ToolFunction{
				Name:        "scrape_page",
				Description: "Scrape and extract content from a specific URL (investor relations page, SEC filing, news article, etc).",
				Parameters: json.RawMessage(`{
					"type": "object",
					"properties": {
						"url": {"type": "string", "description": "URL to scrape"}
					},
					"required": ["url"]
				}`),
			},
		},
	}
}

// SubmitAnalysisTool returns the mandatory structured-output tool for the
// batch-analysis path.
func SubmitAnalysisTool() Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        "submit_analysis",
			Description: "Submit the complete bottleneck analysis results",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"scores": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"company_id": {"type": "string"},
								"bottleneck_score": {"type": "number"},
								"beneficiary_score": {"type": "number"},
								"breakdown": {
									"type": "object",
									"properties": {
										"concentration_risk": {"type": "number"},
										"financial_health": {"type": "number"},
										"signal_strength": {"type": "number"},
										"reason": {"type": "string"}
									},
									"required": ["concentration_risk", "financial_health", "signal_strength", "reason"]
								}
							},
							"required": ["company_id", "bottleneck_score", "beneficiary_score", "breakdown"]
						}
					},
					"signals": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"company_id": {"type": "string"},
								"signal_type": {"type": "string"},
								"direction": {"type": "string", "enum": ["up", "down", "flat", "unknown"]},
								"magnitude": {"type": "number"},
								"summary": {"type": "string"},
								"source": {"type": "string"}
							},
							"required": ["company_id", "signal_type", "direction", "magnitude", "summary", "source"]
						}
					},
					"new_relationships": {
						"type": "array",
						"items": {
							"type": "object",
							"properties": {
								"from_company_id": {"type": "string"},
								"to_company_id": {"type": "string"},
								"rel_type": {"type": "string", "enum": ["supplier", "customer", "partner", "competitor", "other"]},
								"confidence": {"type": "number"},
								"notes": {"type": "string"}
							},
							"required": ["from_company_id", "to_company_id", "rel_type", "confidence", "notes"]
						}
					}
				},
				"required": ["scores", "signals", "new_relationships"]
			}`),
		},
	}
}

// ExecuteAll runs every requested tool call concurrently and returns the
// tool-result messages in call order.
func (t *Toolbox) ExecuteAll(ctx context.Context, calls []ToolCall) []Message {
	results := make([]Message, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call ToolCall) {
			defer wg.Done()
			results[i] = ToolMessage(call.ID, t.Execute(ctx, call.Function.Name, call.Function.Arguments))
		}(i, call)
	}
	wg.Wait()
	return results
}

// Execute runs one named tool and returns its result as a string. Every
// failure path returns an {"error": message} JSON string.
func (t *Toolbox) Execute(ctx context.Context, name, rawArgs string) string {
	if t.logger != nil {
		t.logger.Debug().Str("tool", name).Msg("Executing tool call")
	}

	switch name {
	case "get_stock_data":
		return t.getStockData(ctx, rawArgs)
	case "get_earnings_transcript":
		return t.getEarningsTranscript(ctx, rawArgs)
	case "web_search":
		return t.webSearch(ctx, rawArgs)
	case "scrape_page":
		return t.scrapePage(ctx, rawArgs)
	default:
		return errJSON(fmt.Sprintf("Unknown tool: %s", name))
	}
}

func (t *Toolbox) getStockData(ctx context.Context, rawArgs string) string {
	var args struct {
		Ticker string `json:"ticker"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errJSON("invalid get_stock_data arguments: " + err.Error())
	}
	if t.market == nil {
		return errJSON("market data provider not configured")
	}

	ticker := strings.ToUpper(args.Ticker)
	results := make(map[string]any)
	var mu sync.Mutex
	var wg sync.WaitGroup

	fetch := func(key string, fn func() (any, error)) {
		defer wg.Done()
		value, err := fn()
		if err != nil || isNil(value) {
			return
		}
		mu.Lock()
		results[key] = value
		mu.Unlock()
	}

	wg.Add(5)
	go fetch("quote", func() (any, error) { return t.market.GetQuote(ctx, ticker) })
	go fetch("profile", func() (any, error) { return t.market.GetProfile(ctx, ticker) })
	go fetch("key-metrics", func() (any, error) { return t.market.GetKeyMetricsTTM(ctx, ticker) })
	go fetch("income-statement", func() (any, error) { return t.market.GetIncomeStatement(ctx, ticker) })
	go fetch("balance-sheet-statement", func() (any, error) { return t.market.GetBalanceSheet(ctx, ticker) })
	wg.Wait()

	encoded, err := json.Marshal(results)
	if err != nil {
		return errJSON("failed to encode stock data: " + err.Error())
	}
	return string(encoded)
}

func (t *Toolbox) getEarningsTranscript(ctx context.Context, rawArgs string) string {
	var args struct {
		Ticker  string `json:"ticker"`
		Year    int    `json:"year"`
		Quarter int    `json:"quarter"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errJSON("invalid get_earnings_transcript arguments: " + err.Error())
	}
	if t.market == nil {
		return errJSON("market data provider not configured")
	}

	transcript, err := t.market.GetEarningsTranscript(ctx, strings.ToUpper(args.Ticker), args.Year, args.Quarter, transcriptToolLimit)
	if err != nil {
		return errJSON(err.Error())
	}
	if transcript == "" {
		return errJSON(fmt.Sprintf("no transcript available for %s Q%d %d", args.Ticker, args.Quarter, args.Year))
	}
	return transcript
}

func (t *Toolbox) webSearch(ctx context.Context, rawArgs string) string {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errJSON("invalid web_search arguments: " + err.Error())
	}
	if t.search == nil || !t.search.Configured() {
		return errJSON("search provider not configured")
	}

	result, err := t.search.Query(ctx, "Provide concise, factual answers with sources.", args.Query, false)
	if err != nil {
		return errJSON(err.Error())
	}

	encoded, err := json.Marshal(map[string]any{
		"answer":    result.Answer,
		"citations": result.Citations,
	})
	if err != nil {
		return errJSON("failed to encode search result: " + err.Error())
	}
	return string(encoded)
}

func (t *Toolbox) scrapePage(ctx context.Context, rawArgs string) string {
	var args struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return errJSON("invalid scrape_page arguments: " + err.Error())
	}
	if t.scraper == nil {
		return errJSON("scrape provider not configured")
	}

	content, err := t.scraper.Scrape(ctx, args.URL, scrapePageLimit)
	if err != nil {
		return errJSON(err.Error())
	}
	return content
}

func errJSON(msg string) string {
	encoded, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error": "tool execution failed"}`
	}
	return string(encoded)
}

// isNil reports whether a typed-nil pointer hides behind the interface.
func isNil(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case *models.Quote:
		return value == nil
	case *models.Profile:
		return value == nil
	case *models.KeyMetrics:
		return value == nil
	case *models.IncomeStatement:
		return value == nil
	case *models.BalanceSheet:
		return value == nil
	}
	return false
}
