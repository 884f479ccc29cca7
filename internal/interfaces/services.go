package interfaces

import (
	"context"

	"github.com/ternarybob/chainscan/internal/models"
)

// FinancialsFetcher produces the per-company financial snapshot for a scan.
// Implementations degrade to nil fields rather than failing the company.
type FinancialsFetcher interface {
	FetchCompanyData(ctx context.Context, ticker, companyID string) *models.CompanyFinancials
}

// NewsSearcher enriches a company with recent supply-chain news. An
// unconfigured or failing searcher returns an empty string.
type NewsSearcher interface {
	Configured() bool
	SupplyChainNews(ctx context.Context, companyName, ticker string) string
}

// Analyzer runs the structured batch analysis over one batch of companies.
type Analyzer interface {
	Analyze(ctx context.Context, batch []*models.CompanyFinancials, news map[string]string, knownIDs []string) (*models.AnalysisResult, error)
}

// ScanService runs one full scan and returns its closed-out run record.
type ScanService interface {
	Run(ctx context.Context, triggerType string) (*models.ScanRun, error)
}
