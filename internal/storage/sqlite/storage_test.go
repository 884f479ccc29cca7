package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	config := &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		CacheSizeMB:   10,
		BusyTimeoutMS: 1000,
		WALMode:       false,
	}

	manager, err := NewManager(common.GetLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestCompanyUpsert(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	company := &models.Company{ID: "nvda", Ticker: "NVDA", Name: "NVIDIA", Category: "chip-makers"}
	require.NoError(t, manager.Companies().Upsert(ctx, company))

	// second upsert replaces fields, no duplicate row
	company.Name = "NVIDIA Corporation"
	require.NoError(t, manager.Companies().Upsert(ctx, company))

	count, err := manager.Companies().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := manager.Companies().GetByID(ctx, "nvda")
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA Corporation", got.Name)
	assert.Equal(t, "chip-makers", got.Category)

	_, err = manager.Companies().GetByID(ctx, "missing")
	require.Error(t, err)
}

func TestScoreUpsertReplacesPriorRow(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	score := &models.CompanyScore{
		CompanyID:        "nvda",
		BottleneckScore:  15,
		BeneficiaryScore: 80,
		Breakdown: models.ScoreBreakdown{
			ConcentrationRisk: 40,
			FinancialHealth:   90,
			SignalStrength:    60,
			Reason:            "dominant accelerator position",
		},
	}
	require.NoError(t, manager.Scores().Upsert(ctx, score))

	score.BottleneckScore = 25
	score.Breakdown.Reason = "competition emerging"
	require.NoError(t, manager.Scores().Upsert(ctx, score))

	scores, err := manager.Scores().List(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, float64(25), scores[0].BottleneckScore)
	assert.Equal(t, "competition emerging", scores[0].Breakdown.Reason)
	assert.False(t, scores[0].ComputedAt.IsZero())
}

func TestScoreListOrderedByBottleneck(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	for id, bottleneck := range map[string]float64{"nvda": 15, "asml": 95, "tsmc": 90} {
		require.NoError(t, manager.Scores().Upsert(ctx, &models.CompanyScore{
			CompanyID:       id,
			BottleneckScore: bottleneck,
			Breakdown:       models.ScoreBreakdown{Reason: "r"},
		}))
	}

	scores, err := manager.Scores().List(ctx)
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "asml", scores[0].CompanyID)
	assert.Equal(t, "tsmc", scores[1].CompanyID)
	assert.Equal(t, "nvda", scores[2].CompanyID)
}

func TestSignalsAppendOnly(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	signal := &models.Signal{
		CompanyID:  "nvda",
		SignalType: "demand",
		Direction:  models.SignalDirectionUp,
		Magnitude:  0.8,
		Summary:    "Data center demand accelerating",
		Source:     "transcript",
	}

	// identical payloads are two independent observations, never deduplicated
	require.NoError(t, manager.Signals().InsertBatch(ctx, []*models.Signal{signal}))
	require.NoError(t, manager.Signals().InsertBatch(ctx, []*models.Signal{signal}))

	signals, err := manager.Signals().ListByCompany(ctx, "nvda", 10)
	require.NoError(t, err)
	assert.Len(t, signals, 2)
	assert.NotEqual(t, signals[0].ID, signals[1].ID)
}

func TestSignalBatchAllOrNothing(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	batch := []*models.Signal{
		{ID: "sig-1", CompanyID: "nvda", SignalType: "demand", Direction: models.SignalDirectionUp, Summary: "a", Source: "news"},
		{ID: "sig-1", CompanyID: "tsmc", SignalType: "supply", Direction: models.SignalDirectionDown, Summary: "b", Source: "news"},
	}

	// duplicate primary key fails the second row; nothing from the batch lands
	err := manager.Signals().InsertBatch(ctx, batch)
	require.Error(t, err)

	signals, err := manager.Signals().List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestRelationshipUpsertOnTriple(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	rel := &models.Relationship{
		FromCompanyID: "tsmc",
		ToCompanyID:   "nvda",
		RelType:       models.RelationSupplier,
		Confidence:    0.7,
		Notes:         "foundry",
		Source:        "ai-scan",
	}
	require.NoError(t, manager.Relationships().Upsert(ctx, rel))

	// same triple updates in place
	rel.Confidence = 0.95
	rel.Notes = "sole advanced-node foundry"
	require.NoError(t, manager.Relationships().Upsert(ctx, rel))

	// different rel_type on the same pair is a distinct edge
	require.NoError(t, manager.Relationships().Upsert(ctx, &models.Relationship{
		FromCompanyID: "tsmc",
		ToCompanyID:   "nvda",
		RelType:       models.RelationPartner,
		Confidence:    0.5,
		Source:        "ai-scan",
	}))

	rels, err := manager.Relationships().List(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 2)

	var supplier *models.Relationship
	for _, r := range rels {
		if r.RelType == models.RelationSupplier {
			supplier = r
		}
	}
	require.NotNil(t, supplier)
	assert.Equal(t, 0.95, supplier.Confidence)
	assert.Equal(t, "sole advanced-node foundry", supplier.Notes)
}

func TestScanRunTransitionsExactlyOnce(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	run, err := manager.ScanRuns().Create(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusRunning, run.Status)
	require.NotEmpty(t, run.ID)

	require.NoError(t, manager.ScanRuns().Complete(ctx, run.ID, 17, 12, 4))

	// both terminal states reject a second transition
	require.Error(t, manager.ScanRuns().Complete(ctx, run.ID, 17, 12, 4))
	require.Error(t, manager.ScanRuns().Fail(ctx, run.ID, "late failure"))

	got, err := manager.ScanRuns().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusCompleted, got.Status)
	assert.Equal(t, 17, got.CompaniesScanned)
	assert.Equal(t, 12, got.SignalsFound)
	assert.Equal(t, 4, got.RelationshipsFound)
	require.NotNil(t, got.CompletedAt)
	assert.Empty(t, got.ErrorMessage)
}

func TestScanRunFail(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	run, err := manager.ScanRuns().Create(ctx, "scheduled")
	require.NoError(t, err)

	require.NoError(t, manager.ScanRuns().Fail(ctx, run.ID, "no companies in database"))

	got, err := manager.ScanRuns().GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ScanStatusFailed, got.Status)
	assert.Equal(t, "no companies in database", got.ErrorMessage)
	require.NotNil(t, got.CompletedAt)
}

func TestScanRunList(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	_, err := manager.ScanRuns().Create(ctx, "manual")
	require.NoError(t, err)
	_, err = manager.ScanRuns().Create(ctx, "scheduled")
	require.NoError(t, err)

	runs, err := manager.ScanRuns().List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	runs, err = manager.ScanRuns().List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
