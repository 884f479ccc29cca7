package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/chainscan/internal/models"
)

const testRosterYAML = `
companies:
  - id: nvda
    ticker: NVDA
    name: NVIDIA
    category: chip-makers
    suppliers: [tsmc]
    customers: [amzn]
  - id: tsmc
    ticker: TSM
    name: TSMC
    category: equipment-materials
    customers: [nvda]
  - id: amzn
    ticker: AMZN
    name: Amazon (AWS)
    category: cloud-datacenters
    suppliers: [nvda, ghost]
`

func writeTestRoster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testRosterYAML), 0644))
	return path
}

func TestLoadRoster(t *testing.T) {
	companies, err := LoadRoster(writeTestRoster(t))
	require.NoError(t, err)
	require.Len(t, companies, 3)

	assert.Equal(t, "nvda", companies[0].ID)
	assert.Equal(t, "NVDA", companies[0].Ticker)
	assert.Equal(t, []string{"tsmc"}, companies[0].Suppliers)
	assert.Equal(t, []string{"amzn"}, companies[0].Customers)
}

func TestLoadRosterMissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadRosterEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "companies.yaml")
	require.NoError(t, os.WriteFile(path, []byte("companies: []\n"), 0644))

	_, err := LoadRoster(path)
	require.Error(t, err)
}

func TestSeedRosterIdempotent(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	companies, err := LoadRoster(writeTestRoster(t))
	require.NoError(t, err)

	require.NoError(t, SeedRoster(ctx, manager, companies, nil))
	require.NoError(t, SeedRoster(ctx, manager, companies, nil))

	count, err := manager.Companies().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	rels, err := manager.Relationships().List(ctx)
	require.NoError(t, err)
	// tsmc->nvda supplier, amzn->nvda customer, nvda->tsmc customer,
	// nvda->amzn supplier; the edge to the unknown "ghost" id is skipped
	require.Len(t, rels, 4)

	for _, rel := range rels {
		assert.Equal(t, "seed", rel.Source)
		assert.NotEqual(t, "ghost", rel.FromCompanyID)
	}
}

func TestSeedRosterEdgeDirections(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	companies := []*models.Company{
		{ID: "asml", Ticker: "ASML", Name: "ASML", Customers: []string{"tsmc"}},
		{ID: "tsmc", Ticker: "TSM", Name: "TSMC", Suppliers: []string{"asml"}},
	}
	require.NoError(t, SeedRoster(ctx, manager, companies, nil))

	rels, err := manager.Relationships().List(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 2)

	byType := map[models.RelationType]*models.Relationship{}
	for _, rel := range rels {
		byType[rel.RelType] = rel
	}

	// asml supplies tsmc; tsmc buys from asml
	require.Contains(t, byType, models.RelationSupplier)
	assert.Equal(t, "asml", byType[models.RelationSupplier].FromCompanyID)
	assert.Equal(t, "tsmc", byType[models.RelationSupplier].ToCompanyID)

	require.Contains(t, byType, models.RelationCustomer)
	assert.Equal(t, "tsmc", byType[models.RelationCustomer].FromCompanyID)
	assert.Equal(t, "asml", byType[models.RelationCustomer].ToCompanyID)
}
