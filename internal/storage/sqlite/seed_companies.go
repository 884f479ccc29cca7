package sqlite

import (
	"context"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
	"gopkg.in/yaml.v3"
)

type rosterFile struct {
	Companies []*models.Company `yaml:"companies"`
}

// LoadRoster reads the YAML company roster seed file.
func LoadRoster(path string) ([]*models.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster file: %w", err)
	}

	var roster rosterFile
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to parse roster file: %w", err)
	}
	if len(roster.Companies) == 0 {
		return nil, fmt.Errorf("roster file %s contains no companies", path)
	}
	return roster.Companies, nil
}

// SeedRoster upserts the roster companies and their hand-authored
// supplier/customer edges. Seeding is idempotent; existing AI-discovered
// edges on other (from, to, type) triples are untouched.
//
// Edge direction: rel_type describes the from-company's role toward the
// to-company. A supplier entry s of company c becomes (s -> c, supplier);
// a customer entry u of company c becomes (u -> c, customer).
func SeedRoster(ctx context.Context, storage interfaces.StorageManager, companies []*models.Company, logger arbor.ILogger) error {
	known := make(map[string]bool, len(companies))
	for _, c := range companies {
		known[c.ID] = true
	}

	edges := 0
	for _, c := range companies {
		if err := storage.Companies().Upsert(ctx, c); err != nil {
			return fmt.Errorf("failed to seed company %s: %w", c.ID, err)
		}

		for _, supplierID := range c.Suppliers {
			if !known[supplierID] {
				continue
			}
			rel := &models.Relationship{
				FromCompanyID: supplierID,
				ToCompanyID:   c.ID,
				RelType:       models.RelationSupplier,
				Confidence:    1.0,
				Source:        "seed",
			}
			if err := storage.Relationships().Upsert(ctx, rel); err != nil {
				return fmt.Errorf("failed to seed supplier edge %s -> %s: %w", supplierID, c.ID, err)
			}
			edges++
		}

		for _, customerID := range c.Customers {
			if !known[customerID] {
				continue
			}
			rel := &models.Relationship{
				FromCompanyID: customerID,
				ToCompanyID:   c.ID,
				RelType:       models.RelationCustomer,
				Confidence:    1.0,
				Source:        "seed",
			}
			if err := storage.Relationships().Upsert(ctx, rel); err != nil {
				return fmt.Errorf("failed to seed customer edge %s -> %s: %w", customerID, c.ID, err)
			}
			edges++
		}
	}

	if logger != nil {
		logger.Info().
			Int("companies", len(companies)).
			Int("edges", edges).
			Msg("Seeded company roster")
	}
	return nil
}
