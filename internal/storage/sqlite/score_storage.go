package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
)

// ScoreStorage implements interfaces.ScoreStorage for SQLite
type ScoreStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewScoreStorage creates a new ScoreStorage instance
func NewScoreStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ScoreStorage {
	return &ScoreStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert writes a company's score, fully replacing any prior row.
func (s *ScoreStorage) Upsert(ctx context.Context, score *models.CompanyScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode score breakdown: %w", err)
	}

	computedAt := score.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now()
	}

	query := `
		INSERT INTO company_scores (company_id, bottleneck_score, beneficiary_score, breakdown, computed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(company_id) DO UPDATE SET
			bottleneck_score = excluded.bottleneck_score,
			beneficiary_score = excluded.beneficiary_score,
			breakdown = excluded.breakdown,
			computed_at = excluded.computed_at
	`

	_, err = s.db.db.ExecContext(ctx, query,
		score.CompanyID, score.BottleneckScore, score.BeneficiaryScore, string(breakdown), computedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return nil
}

// GetByCompanyID retrieves one company's score.
func (s *ScoreStorage) GetByCompanyID(ctx context.Context, companyID string) (*models.CompanyScore, error) {
	query := `
		SELECT company_id, bottleneck_score, beneficiary_score, breakdown, computed_at
		FROM company_scores WHERE company_id = ?
	`
	row := s.db.db.QueryRowContext(ctx, query, companyID)
	score, err := scanScore(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("score for company '%s' not found", companyID)
	}
	return score, err
}

// List returns all scores ordered by bottleneck score, highest first.
func (s *ScoreStorage) List(ctx context.Context) ([]*models.CompanyScore, error) {
	query := `
		SELECT company_id, bottleneck_score, beneficiary_score, breakdown, computed_at
		FROM company_scores
		ORDER BY bottleneck_score DESC
	`

	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	var scores []*models.CompanyScore
	for rows.Next() {
		score, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScore(row rowScanner) (*models.CompanyScore, error) {
	var score models.CompanyScore
	var breakdown string
	var computedAt int64

	err := row.Scan(&score.CompanyID, &score.BottleneckScore, &score.BeneficiaryScore, &breakdown, &computedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan score: %w", err)
	}

	if err := json.Unmarshal([]byte(breakdown), &score.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode score breakdown: %w", err)
	}
	score.ComputedAt = time.Unix(computedAt, 0).UTC()
	return &score, nil
}
