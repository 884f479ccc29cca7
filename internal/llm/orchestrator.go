package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/models"
)

// AnalysisMaxIterations bounds the tool loop on the batch-analysis path.
const AnalysisMaxIterations = 5

// ChatMaxIterations bounds the tool loop on the interactive-chat path.
const ChatMaxIterations = 10

// Orchestrator drives bounded tool-calling conversations: the structured
// batch-analysis path and the interactive research-chat path.
type Orchestrator struct {
	client  *Client
	toolbox *Toolbox
	logger  arbor.ILogger
}

// NewOrchestrator creates an orchestrator over a gateway client and toolbox.
func NewOrchestrator(client *Client, toolbox *Toolbox, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		client:  client,
		toolbox: toolbox,
		logger:  logger,
	}
}

// Analyze runs the structured-analysis path for one batch of companies. The
// model is forced to call submit_analysis; its arguments are parsed,
// schema-validated and filtered to known company IDs before being returned.
func (o *Orchestrator) Analyze(
	ctx context.Context,
	batch []*models.CompanyFinancials,
	news map[string]string,
	knownIDs []string,
) (*models.AnalysisResult, error) {
	messages := []Message{
		SystemMessage(analysisSystemPrompt(knownIDs)),
		UserMessage(companyContext(batch, news)),
	}

	tools := append(o.toolbox.Definitions(), SubmitAnalysisTool())

	for i := 0; i < AnalysisMaxIterations; i++ {
		resp, err := o.client.Chat(ctx, ChatRequest{
			Messages:   messages,
			Tools:      tools,
			ToolChoice: ForceTool("submit_analysis"),
		})
		if err != nil {
			return nil, err
		}

		choice := resp.FirstChoice()
		if choice == nil {
			return nil, fmt.Errorf("gateway returned no choices")
		}

		if submit := findToolCall(choice.Message.ToolCalls, "submit_analysis"); submit != nil {
			result, err := models.ParseAnalysisResult(submit.Function.Arguments)
			if err != nil {
				return nil, err
			}
			result.FilterToKnownCompanies(knownIDs)
			return result, nil
		}

		if len(choice.Message.ToolCalls) > 0 {
			// Research tool calls before the mandatory submission
			messages = append(messages, choice.Message)
			messages = append(messages, o.toolbox.ExecuteAll(ctx, choice.Message.ToolCalls)...)
			continue
		}

		return nil, fmt.Errorf("model did not return structured analysis")
	}

	return nil, ErrTooManyIterations
}

// Chat runs the interactive research conversation. Tool calls are executed
// and fed back; the model's final turn is re-issued as a streaming request
// relayed verbatim to w.
func (o *Orchestrator) Chat(ctx context.Context, history []Message, w io.Writer) error {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, SystemMessage(chatSystemPrompt()))
	messages = append(messages, history...)

	tools := o.toolbox.Definitions()

	for i := 0; i < ChatMaxIterations; i++ {
		resp, err := o.client.Chat(ctx, ChatRequest{
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			return err
		}

		choice := resp.FirstChoice()
		if choice == nil {
			return fmt.Errorf("gateway returned no choices")
		}

		if choice.FinishReason == "tool_calls" || len(choice.Message.ToolCalls) > 0 {
			messages = append(messages, choice.Message)
			messages = append(messages, o.toolbox.ExecuteAll(ctx, choice.Message.ToolCalls)...)
			continue
		}

		// Final text turn: re-issue the transcript as a streamed response
		return o.client.Stream(ctx, ChatRequest{Messages: messages}, w)
	}

	return ErrTooManyIterations
}

func findToolCall(calls []ToolCall, name string) *ToolCall {
	for i := range calls {
		if calls[i].Function.Name == name {
			return &calls[i]
		}
	}
	return nil
}

func analysisSystemPrompt(knownIDs []string) string {
	now := time.Now().UTC()
	return fmt.Sprintf(`You are an expert AI supply chain risk analyst. Today is %s. The year is %d.

Analyze the following companies' financial data, earnings transcripts, and recent news to identify:
1. **Bottleneck scores** (0-100): How much of a single point of failure is this company in the AI infrastructure supply chain? Consider: market share monopoly/duopoly position, number of downstream dependents, replaceability.
2. **Beneficiary scores** (0-100): How much does this company benefit from AI infrastructure buildout?
3. **Signals**: Extract specific supply chain signals from earnings transcripts and news (demand trends, capacity constraints, lead time changes, pricing pressure, capex plans).
4. **New relationships**: If you discover supplier/customer/partner relationships from transcripts or news that aren't in the existing data, report them.

Known company IDs in our system: %s

Only create relationships between companies that exist in our system.`,
		now.Format("2006-01-02"), now.Year(), strings.Join(knownIDs, ", "))
}

func chatSystemPrompt() string {
	now := time.Now().UTC()
	return fmt.Sprintf(`You are an expert stock and supply chain research analyst embedded in a finance app. The current date and time is %s (UTC). Do NOT guess or approximate the time — use this exact timestamp when asked about the current time.

CRITICAL RULES:
- **ALWAYS call get_stock_data FIRST** when a user asks about any company's price, market cap, revenue, earnings, valuation, or any financial metric. NEVER answer financial questions from memory — your training data is outdated.
- After getting live data from get_stock_data, you may supplement with web_search for context (news, analysis).
- Use get_earnings_transcript to read management commentary for a specific quarter.
- Use scrape_page to extract content from specific URLs the user provides.
- When presenting data, clearly state it came from live API data, not your training knowledge.

Available tools:
1. **get_stock_data** — Fetches LIVE financial data: current price, market cap, revenue, earnings, balance sheet, key metrics. USE THIS FOR ALL FINANCIAL QUESTIONS.
2. **get_earnings_transcript** — Earnings call transcript for a ticker and fiscal quarter.
3. **web_search** — Real-time web search for news, earnings reports, SEC filings, market analysis. Good for context and recent events.
4. **scrape_page** — Scrape content from any URL (investor relations, 10-K filings, news articles).

Format responses with clear markdown: headers, bullet points, tables for financial data. Always specify data source (e.g. "Source: Live API data").

If a tool returns an error about not being configured, let the user know they need to connect that service.`,
		now.Format(time.RFC3339))
}

// companyContext renders one batch of company data as the analysis user
// message, one markdown section per company.
func companyContext(batch []*models.CompanyFinancials, news map[string]string) string {
	sections := make([]string, 0, len(batch))
	for _, c := range batch {
		parts := []string{fmt.Sprintf("## %s (ID: %s)", c.Ticker, c.CompanyID)}
		if c.Quote != nil {
			parts = append(parts, "Quote: "+mustJSON(c.Quote))
		}
		if c.KeyMetrics != nil {
			parts = append(parts, "Key Metrics: "+mustJSON(c.KeyMetrics))
		}
		if c.IncomeStatement != nil {
			parts = append(parts, "Income Statement: "+mustJSON(c.IncomeStatement))
		}
		if c.Transcript != "" {
			parts = append(parts, "Earnings Transcript (excerpt):\n"+c.Transcript)
		}
		if n := news[c.CompanyID]; n != "" {
			parts = append(parts, "Recent News:\n"+n)
		}
		sections = append(sections, strings.Join(parts, "\n"))
	}
	return strings.Join(sections, "\n\n---\n\n")
}

func mustJSON(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}
