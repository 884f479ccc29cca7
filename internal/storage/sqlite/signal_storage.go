package sqlite

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
)

// SignalStorage implements interfaces.SignalStorage for SQLite. The signals
// table is append-only; this storage never updates or deletes rows.
type SignalStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewSignalStorage creates a new SignalStorage instance
func NewSignalStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.SignalStorage {
	return &SignalStorage{
		db:     db,
		logger: logger,
	}
}

// InsertBatch appends all signals in one transaction. If any row fails, the
// transaction rolls back and no signals from the batch are persisted.
func (s *SignalStorage) InsertBatch(ctx context.Context, signals []*models.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin signal transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO signals (id, company_id, signal_type, direction, magnitude, summary, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	for _, signal := range signals {
		id := signal.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := signal.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		_, err := tx.ExecContext(ctx, query,
			id, signal.CompanyID, signal.SignalType, string(signal.Direction),
			signal.Magnitude, signal.Summary, signal.Source, createdAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to insert signal for %s: %w", signal.CompanyID, err)
		}
	}

	return tx.Commit()
}

// List returns the most recent signals across all companies.
func (s *SignalStorage) List(ctx context.Context, limit int) ([]*models.Signal, error) {
	query := `
		SELECT id, company_id, signal_type, direction, magnitude, summary, source, created_at
		FROM signals
		ORDER BY created_at DESC
		LIMIT ?
	`
	return s.query(ctx, query, normalizeLimit(limit))
}

// ListByCompany returns the most recent signals for one company.
func (s *SignalStorage) ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.Signal, error) {
	query := `
		SELECT id, company_id, signal_type, direction, magnitude, summary, source, created_at
		FROM signals
		WHERE company_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	return s.query(ctx, query, companyID, normalizeLimit(limit))
}

func (s *SignalStorage) query(ctx context.Context, query string, args ...any) ([]*models.Signal, error) {
	rows, err := s.db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	defer rows.Close()

	var signals []*models.Signal
	for rows.Next() {
		var signal models.Signal
		var direction string
		var createdAt int64
		if err := rows.Scan(&signal.ID, &signal.CompanyID, &signal.SignalType, &direction,
			&signal.Magnitude, &signal.Summary, &signal.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		signal.Direction = models.SignalDirection(direction)
		signal.CreatedAt = time.Unix(createdAt, 0).UTC()
		signals = append(signals, &signal)
	}
	return signals, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	return limit
}
