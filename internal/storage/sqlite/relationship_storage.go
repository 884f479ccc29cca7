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

// RelationshipStorage implements interfaces.RelationshipStorage for SQLite
type RelationshipStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewRelationshipStorage creates a new RelationshipStorage instance
func NewRelationshipStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.RelationshipStorage {
	return &RelationshipStorage{
		db:     db,
		logger: logger,
	}
}

// Upsert writes one edge keyed on (from_company_id, to_company_id, rel_type).
// Re-discovering an edge updates confidence, notes, source and last_seen.
func (s *RelationshipStorage) Upsert(ctx context.Context, rel *models.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastSeen := rel.LastSeen
	if lastSeen.IsZero() {
		lastSeen = time.Now()
	}

	query := `
		INSERT INTO relationships (from_company_id, to_company_id, rel_type, confidence, notes, source, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(from_company_id, to_company_id, rel_type) DO UPDATE SET
			confidence = excluded.confidence,
			notes = excluded.notes,
			source = excluded.source,
			last_seen = excluded.last_seen
	`

	_, err := s.db.db.ExecContext(ctx, query,
		rel.FromCompanyID, rel.ToCompanyID, string(rel.RelType),
		rel.Confidence, rel.Notes, rel.Source, lastSeen.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert relationship: %w", err)
	}
	return nil
}

// List returns all edges ordered by the from/to pair.
func (s *RelationshipStorage) List(ctx context.Context) ([]*models.Relationship, error) {
	query := `
		SELECT from_company_id, to_company_id, rel_type, confidence, notes, source, last_seen
		FROM relationships
		ORDER BY from_company_id, to_company_id
	`

	rows, err := s.db.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []*models.Relationship
	for rows.Next() {
		var rel models.Relationship
		var relType string
		var notes sql.NullString
		var lastSeen int64
		if err := rows.Scan(&rel.FromCompanyID, &rel.ToCompanyID, &relType,
			&rel.Confidence, &notes, &rel.Source, &lastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rel.RelType = models.RelationType(relType)
		rel.Notes = notes.String
		rel.LastSeen = time.Unix(lastSeen, 0).UTC()
		rels = append(rels, &rel)
	}
	return rels, rows.Err()
}
