package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
)

// ScanRunStorage implements interfaces.ScanRunStorage for SQLite
type ScanRunStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewScanRunStorage creates a new ScanRunStorage instance
func NewScanRunStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.ScanRunStorage {
	return &ScanRunStorage{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new run in "running" state and returns it.
func (s *ScanRunStorage) Create(ctx context.Context, triggerType string) (*models.ScanRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &models.ScanRun{
		ID:          uuid.New().String(),
		Status:      models.ScanStatusRunning,
		TriggerType: triggerType,
		StartedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO scan_runs (id, status, trigger_type, started_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.db.ExecContext(ctx, query, run.ID, string(run.Status), run.TriggerType, run.StartedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to create scan run: %w", err)
	}
	return run, nil
}

// Complete transitions a running scan to "completed" with its final counts.
// A run that already left "running" state is not touched.
func (s *ScanRunStorage) Complete(ctx context.Context, id string, companiesScanned, signalsFound, relationshipsFound int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE scan_runs
		SET status = ?, companies_scanned = ?, signals_found = ?, relationships_found = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := s.db.db.ExecContext(ctx, query,
		string(models.ScanStatusCompleted), companiesScanned, signalsFound, relationshipsFound,
		time.Now().Unix(), id, string(models.ScanStatusRunning))
	if err != nil {
		return fmt.Errorf("failed to complete scan run: %w", err)
	}
	return s.requireTransition(result, id)
}

// Fail transitions a running scan to "failed" with a reason. A run that
// already left "running" state is not touched.
func (s *ScanRunStorage) Fail(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		UPDATE scan_runs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := s.db.db.ExecContext(ctx, query,
		string(models.ScanStatusFailed), reason, time.Now().Unix(), id, string(models.ScanStatusRunning))
	if err != nil {
		return fmt.Errorf("failed to mark scan run failed: %w", err)
	}
	return s.requireTransition(result, id)
}

func (s *ScanRunStorage) requireTransition(result sql.Result, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scan run '%s' is not running", id)
	}
	return nil
}

// GetByID retrieves one scan run.
func (s *ScanRunStorage) GetByID(ctx context.Context, id string) (*models.ScanRun, error) {
	query := scanRunSelect + ` WHERE id = ?`
	row := s.db.db.QueryRowContext(ctx, query, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scan run '%s' not found", id)
	}
	return run, err
}

// List returns the most recent scan runs.
func (s *ScanRunStorage) List(ctx context.Context, limit int) ([]*models.ScanRun, error) {
	query := scanRunSelect + ` ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.db.QueryContext(ctx, query, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ScanRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

const scanRunSelect = `
	SELECT id, status, trigger_type, started_at, completed_at,
	       companies_scanned, signals_found, relationships_found, error_message
	FROM scan_runs
`

func scanRun(row rowScanner) (*models.ScanRun, error) {
	var run models.ScanRun
	var status string
	var startedAt int64
	var completedAt sql.NullInt64
	var errorMessage sql.NullString

	err := row.Scan(&run.ID, &status, &run.TriggerType, &startedAt, &completedAt,
		&run.CompaniesScanned, &run.SignalsFound, &run.RelationshipsFound, &errorMessage)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan scan run: %w", err)
	}

	run.Status = models.ScanStatus(status)
	run.StartedAt = time.Unix(startedAt, 0).UTC()
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0).UTC()
		run.CompletedAt = &t
	}
	run.ErrorMessage = errorMessage.String
	return &run, nil
}
