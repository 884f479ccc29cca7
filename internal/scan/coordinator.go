// Package scan orchestrates one bottleneck scan end to end: bulk financial
// fetch, optional news enrichment, batched AI analysis and persistence,
// with the run's lifecycle record always closed out.
package scan

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/fanout"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
)

// Coordinator runs the full scan pipeline. It implements
// interfaces.ScanService.
type Coordinator struct {
	storage  interfaces.StorageManager
	fetcher  interfaces.FinancialsFetcher
	searcher interfaces.NewsSearcher
	analyzer interfaces.Analyzer
	config   *common.ScanConfig
	logger   arbor.ILogger
}

// NewCoordinator creates a scan coordinator.
func NewCoordinator(
	storage interfaces.StorageManager,
	fetcher interfaces.FinancialsFetcher,
	searcher interfaces.NewsSearcher,
	analyzer interfaces.Analyzer,
	config *common.ScanConfig,
	logger arbor.ILogger,
) *Coordinator {
	return &Coordinator{
		storage:  storage,
		fetcher:  fetcher,
		searcher: searcher,
		analyzer: analyzer,
		config:   config,
		logger:   logger,
	}
}

// Run executes one scan. The returned run record is already closed out as
// completed or failed; an error is returned only when the run could not be
// initialized or could not finish.
func (c *Coordinator) Run(ctx context.Context, triggerType string) (*models.ScanRun, error) {
	run, err := c.storage.ScanRuns().Create(ctx, triggerType)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scan: %w", err)
	}

	companies, err := c.storage.Companies().List(ctx)
	if err != nil {
		return c.fail(ctx, run, fmt.Sprintf("failed to load companies: %v", err))
	}
	if len(companies) == 0 {
		return c.fail(ctx, run, "no companies in database")
	}

	knownIDs := make([]string, len(companies))
	for i, company := range companies {
		knownIDs[i] = company.ID
	}

	// Step 1: bulk financial fetch
	c.logger.Info().
		Str("scan_id", run.ID).
		Int("companies", len(companies)).
		Msg("Fetching financial data")

	fetchTasks := make([]fanout.Task[*models.CompanyFinancials], len(companies))
	for i, company := range companies {
		ticker, companyID := company.Ticker, company.ID
		fetchTasks[i] = func(ctx context.Context) *models.CompanyFinancials {
			return c.fetcher.FetchCompanyData(ctx, ticker, companyID)
		}
	}
	financials := fanout.Run(ctx, fetchTasks, c.config.FetchConcurrency)

	// Step 2: news enrichment for a bounded roster prefix
	news := c.searchNews(ctx, companies)

	// Step 3: batched AI analysis + persistence
	totalSignals := 0
	totalRelationships := 0
	batchSize := c.config.BatchSize

	for start := 0; start < len(financials); start += batchSize {
		end := start + batchSize
		if end > len(financials) {
			end = len(financials)
		}
		batch := financials[start:end]
		batchNum := start/batchSize + 1

		signals, relationships, err := c.processBatch(ctx, batch, news, knownIDs)
		if err != nil {
			// one batch failing never aborts the remaining batches
			c.logger.Warn().
				Str("scan_id", run.ID).
				Int("batch", batchNum).
				Err(err).
				Msg("Batch analysis failed, skipping")
			continue
		}
		totalSignals += signals
		totalRelationships += relationships
	}

	// Step 4: close out the run
	if err := c.storage.ScanRuns().Complete(ctx, run.ID, len(companies), totalSignals, totalRelationships); err != nil {
		return nil, fmt.Errorf("failed to complete scan run: %w", err)
	}

	run.Status = models.ScanStatusCompleted
	run.CompaniesScanned = len(companies)
	run.SignalsFound = totalSignals
	run.RelationshipsFound = totalRelationships

	c.logger.Info().
		Str("scan_id", run.ID).
		Int("companies", run.CompaniesScanned).
		Int("signals", totalSignals).
		Int("relationships", totalRelationships).
		Msg("Scan completed")
	return run, nil
}

// searchNews enriches the first SearchLimit companies with supply-chain
// news keyed by company id. Returns an empty map when the search provider
// is not configured.
func (c *Coordinator) searchNews(ctx context.Context, companies []*models.Company) map[string]string {
	news := make(map[string]string)
	if c.searcher == nil || !c.searcher.Configured() {
		c.logger.Info().Msg("Search provider not configured, skipping news enrichment")
		return news
	}

	limit := c.config.SearchLimit
	if limit <= 0 || limit > len(companies) {
		limit = len(companies)
	}
	subset := companies[:limit]

	c.logger.Info().Int("companies", len(subset)).Msg("Searching for supply chain news")

	type companyNews struct {
		companyID string
		text      string
	}
	tasks := make([]fanout.Task[companyNews], len(subset))
	for i, company := range subset {
		name, ticker, companyID := company.Name, company.Ticker, company.ID
		tasks[i] = func(ctx context.Context) companyNews {
			return companyNews{companyID: companyID, text: c.searcher.SupplyChainNews(ctx, name, ticker)}
		}
	}

	for _, result := range fanout.Run(ctx, tasks, c.config.SearchConcurrency) {
		if result.text != "" {
			news[result.companyID] = result.text
		}
	}
	return news
}

// processBatch analyzes one batch and persists its results, returning the
// persisted signal and relationship counts.
func (c *Coordinator) processBatch(
	ctx context.Context,
	batch []*models.CompanyFinancials,
	news map[string]string,
	knownIDs []string,
) (int, int, error) {
	batchNews := make(map[string]string, len(batch))
	for _, company := range batch {
		if text, ok := news[company.CompanyID]; ok {
			batchNews[company.CompanyID] = text
		}
	}

	analysis, err := c.analyzer.Analyze(ctx, batch, batchNews, knownIDs)
	if err != nil {
		return 0, 0, err
	}

	return c.persistResults(ctx, analysis)
}

// persistResults writes one batch's analysis: score upserts, an
// all-or-nothing signal insert, and per-row relationship upserts. Only
// relationships that land individually are counted.
func (c *Coordinator) persistResults(ctx context.Context, analysis *models.AnalysisResult) (int, int, error) {
	for _, score := range analysis.Scores {
		err := c.storage.Scores().Upsert(ctx, &models.CompanyScore{
			CompanyID:        score.CompanyID,
			BottleneckScore:  score.BottleneckScore,
			BeneficiaryScore: score.BeneficiaryScore,
			Breakdown:        score.Breakdown,
		})
		if err != nil {
			c.logger.Warn().Str("company_id", score.CompanyID).Err(err).Msg("Score upsert failed")
		}
	}

	signalsFound := 0
	if len(analysis.Signals) > 0 {
		signals := make([]*models.Signal, len(analysis.Signals))
		for i, s := range analysis.Signals {
			signals[i] = &models.Signal{
				CompanyID:  s.CompanyID,
				SignalType: s.SignalType,
				Direction:  s.Direction,
				Magnitude:  s.Magnitude,
				Summary:    s.Summary,
				Source:     s.Source,
			}
		}
		if err := c.storage.Signals().InsertBatch(ctx, signals); err != nil {
			c.logger.Warn().Err(err).Msg("Signal insert failed")
		} else {
			signalsFound = len(signals)
		}
	}

	relationshipsFound := 0
	for _, rel := range analysis.NewRelationships {
		err := c.storage.Relationships().Upsert(ctx, &models.Relationship{
			FromCompanyID: rel.FromCompanyID,
			ToCompanyID:   rel.ToCompanyID,
			RelType:       rel.RelType,
			Confidence:    rel.Confidence,
			Notes:         rel.Notes,
			Source:        "ai-scan",
		})
		if err != nil {
			c.logger.Warn().
				Str("from", rel.FromCompanyID).
				Str("to", rel.ToCompanyID).
				Err(err).
				Msg("Relationship upsert failed")
			continue
		}
		relationshipsFound++
	}

	return signalsFound, relationshipsFound, nil
}

// fail closes the run out as failed and surfaces the reason as an error.
func (c *Coordinator) fail(ctx context.Context, run *models.ScanRun, reason string) (*models.ScanRun, error) {
	if err := c.storage.ScanRuns().Fail(ctx, run.ID, reason); err != nil {
		c.logger.Error().Str("scan_id", run.ID).Err(err).Msg("Failed to mark scan run failed")
	}
	run.Status = models.ScanStatusFailed
	run.ErrorMessage = reason
	return run, fmt.Errorf("%s", reason)
}
