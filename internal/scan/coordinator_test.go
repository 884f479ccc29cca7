package scan

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
	"github.com/ternarybob/chainscan/internal/storage/sqlite"
)

type fakeFetcher struct{}

func (f *fakeFetcher) FetchCompanyData(ctx context.Context, ticker, companyID string) *models.CompanyFinancials {
	return &models.CompanyFinancials{
		Ticker:    ticker,
		CompanyID: companyID,
		Quote:     &models.Quote{Symbol: ticker, Price: 100},
	}
}

type fakeSearcher struct {
	configured bool
	mu         sync.Mutex
	queried    []string
}

func (f *fakeSearcher) Configured() bool {
	return f.configured
}

func (f *fakeSearcher) SupplyChainNews(ctx context.Context, companyName, ticker string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queried = append(f.queried, ticker)
	return "news for " + ticker
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	batches [][]*models.CompanyFinancials
	news    []map[string]string
	results []*models.AnalysisResult
	errs    []error
	calls   int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, batch []*models.CompanyFinancials, news map[string]string, knownIDs []string) (*models.AnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	f.batches = append(f.batches, batch)
	f.news = append(f.news, news)

	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return &models.AnalysisResult{}, nil
}

func newTestStorage(t *testing.T, companies ...*models.Company) interfaces.StorageManager {
	t.Helper()

	config := &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "scan.db"),
		CacheSizeMB:   10,
		BusyTimeoutMS: 1000,
	}
	storage, err := sqlite.NewManager(common.GetLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	for _, company := range companies {
		require.NoError(t, storage.Companies().Upsert(context.Background(), company))
	}
	return storage
}

func scanConfig() *common.ScanConfig {
	return &common.ScanConfig{
		FetchConcurrency:  3,
		SearchConcurrency: 2,
		SearchLimit:       15,
		BatchSize:         15,
	}
}

func TestRunCompletesWithCounts(t *testing.T) {
	storage := newTestStorage(t,
		&models.Company{ID: "nvda", Ticker: "NVDA", Name: "NVIDIA"},
		&models.Company{ID: "tsmc", Ticker: "TSM", Name: "TSMC"},
	)

	analyzer := &fakeAnalyzer{results: []*models.AnalysisResult{{
		Scores: []models.AnalysisScore{{
			CompanyID:        "nvda",
			BottleneckScore:  15,
			BeneficiaryScore: 80,
			Breakdown:        models.ScoreBreakdown{ConcentrationRisk: 40, FinancialHealth: 90, SignalStrength: 60, Reason: "r"},
		}},
		Signals: []models.AnalysisSignal{
			{CompanyID: "nvda", SignalType: "demand", Direction: models.SignalDirectionUp, Magnitude: 0.8, Summary: "s", Source: "transcript"},
			{CompanyID: "tsmc", SignalType: "capacity", Direction: models.SignalDirectionFlat, Magnitude: 0.2, Summary: "s", Source: "news"},
		},
		NewRelationships: []models.AnalysisRelationship{
			{FromCompanyID: "tsmc", ToCompanyID: "nvda", RelType: models.RelationSupplier, Confidence: 0.9, Notes: "foundry"},
		},
	}}}

	coordinator := NewCoordinator(storage, &fakeFetcher{}, &fakeSearcher{configured: true}, analyzer, scanConfig(), common.GetLogger())
	run, err := coordinator.Run(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusCompleted, run.Status)
	assert.Equal(t, 2, run.CompaniesScanned)
	assert.Equal(t, 2, run.SignalsFound)
	assert.Equal(t, 1, run.RelationshipsFound)

	// run record is closed out in storage too
	stored, err := storage.ScanRuns().GetByID(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	score, err := storage.Scores().GetByCompanyID(context.Background(), "nvda")
	require.NoError(t, err)
	assert.Equal(t, float64(15), score.BottleneckScore)

	rels, err := storage.Relationships().List(context.Background())
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "ai-scan", rels[0].Source)

	// analyzer saw the whole roster in one batch with its news
	require.Len(t, analyzer.batches, 1)
	assert.Len(t, analyzer.batches[0], 2)
	assert.Equal(t, "news for NVDA", analyzer.news[0]["nvda"])
}

func TestRunEmptyRosterFails(t *testing.T) {
	storage := newTestStorage(t)

	coordinator := NewCoordinator(storage, &fakeFetcher{}, &fakeSearcher{}, &fakeAnalyzer{}, scanConfig(), common.GetLogger())
	run, err := coordinator.Run(context.Background(), "manual")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no companies")

	require.NotNil(t, run)
	stored, getErr := storage.ScanRuns().GetByID(context.Background(), run.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ScanStatusFailed, stored.Status)
	assert.Equal(t, "no companies in database", stored.ErrorMessage)
	require.NotNil(t, stored.CompletedAt)
}

func TestRunBatchFailureIsNonFatal(t *testing.T) {
	storage := newTestStorage(t,
		&models.Company{ID: "nvda", Ticker: "NVDA", Name: "NVIDIA"},
		&models.Company{ID: "tsmc", Ticker: "TSM", Name: "TSMC"},
	)

	// batch size 1 -> two batches; the first one blows up
	config := scanConfig()
	config.BatchSize = 1

	analyzer := &fakeAnalyzer{
		errs: []error{errors.New("too many tool iterations"), nil},
		results: []*models.AnalysisResult{nil, {
			Signals: []models.AnalysisSignal{
				{CompanyID: "tsmc", SignalType: "capacity", Direction: models.SignalDirectionDown, Magnitude: 0.5, Summary: "s", Source: "news"},
			},
		}},
	}

	coordinator := NewCoordinator(storage, &fakeFetcher{}, &fakeSearcher{}, analyzer, config, common.GetLogger())
	run, err := coordinator.Run(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusCompleted, run.Status)
	assert.Equal(t, 2, run.CompaniesScanned)
	assert.Equal(t, 1, run.SignalsFound)
	assert.Equal(t, 2, analyzer.calls)
}

func TestRunSkipsNewsWhenUnconfigured(t *testing.T) {
	storage := newTestStorage(t, &models.Company{ID: "nvda", Ticker: "NVDA", Name: "NVIDIA"})

	searcher := &fakeSearcher{configured: false}
	analyzer := &fakeAnalyzer{}

	coordinator := NewCoordinator(storage, &fakeFetcher{}, searcher, analyzer, scanConfig(), common.GetLogger())
	run, err := coordinator.Run(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, models.ScanStatusCompleted, run.Status)
	assert.Empty(t, searcher.queried)
	require.Len(t, analyzer.news, 1)
	assert.Empty(t, analyzer.news[0])
}

func TestRunBoundsNewsEnrichment(t *testing.T) {
	storage := newTestStorage(t,
		&models.Company{ID: "amd", Ticker: "AMD", Name: "AMD"},
		&models.Company{ID: "nvda", Ticker: "NVDA", Name: "NVIDIA"},
		&models.Company{ID: "tsmc", Ticker: "TSM", Name: "TSMC"},
	)

	config := scanConfig()
	config.SearchLimit = 2

	searcher := &fakeSearcher{configured: true}
	coordinator := NewCoordinator(storage, &fakeFetcher{}, searcher, &fakeAnalyzer{}, config, common.GetLogger())

	_, err := coordinator.Run(context.Background(), "manual")
	require.NoError(t, err)
	assert.Len(t, searcher.queried, 2)
}
