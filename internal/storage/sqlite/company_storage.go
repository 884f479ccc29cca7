package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/interfaces"
	"github.com/ternarybob/chainscan/internal/models"
)

// CompanyStorage implements interfaces.CompanyStorage for SQLite
type CompanyStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex // Prevents SQLITE_BUSY errors on concurrent writes
}

// NewCompanyStorage creates a new CompanyStorage instance
func NewCompanyStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.CompanyStorage {
	return &CompanyStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or updates a roster entry keyed on id.
func (s *CompanyStorage) Upsert(ctx context.Context, company *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	query := `
		INSERT INTO companies (id, ticker, name, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ticker = excluded.ticker,
			name = excluded.name,
			category = excluded.category,
			updated_at = excluded.updated_at
	`

	_, err := s.db.db.ExecContext(ctx, query, company.ID, company.Ticker, company.Name, company.Category, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert company: %w", err)
	}
	return nil
}

// GetByID retrieves one company by id.
func (s *CompanyStorage) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := `SELECT id, ticker, name, category FROM companies WHERE id = ?`

	var c models.Company
	var category sql.NullString
	err := s.db.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Ticker, &c.Name, &category)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company '%s' not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	c.Category = category.String
	return &c, nil
}

// List returns the full roster ordered by id.
func (s *CompanyStorage) List(ctx context.Context) ([]*models.Company, error) {
	query := `SELECT id, ticker, name, category FROM companies ORDER BY id`

	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []*models.Company
	for rows.Next() {
		var c models.Company
		var category sql.NullString
		if err := rows.Scan(&c.ID, &c.Ticker, &c.Name, &category); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		c.Category = category.String
		companies = append(companies, &c)
	}
	return companies, rows.Err()
}

// Count returns the roster size.
func (s *CompanyStorage) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count companies: %w", err)
	}
	return count, nil
}
