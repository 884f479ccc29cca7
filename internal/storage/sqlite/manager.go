package sqlite

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chainscan/internal/common"
	"github.com/ternarybob/chainscan/internal/interfaces"
)

// Manager implements the StorageManager interface
type Manager struct {
	db            *SQLiteDB
	companies     interfaces.CompanyStorage
	scores        interfaces.ScoreStorage
	signals       interfaces.SignalStorage
	relationships interfaces.RelationshipStorage
	scanRuns      interfaces.ScanRunStorage
	logger        arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.SQLiteConfig) (interfaces.StorageManager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:            db,
		companies:     NewCompanyStorage(db, logger),
		scores:        NewScoreStorage(db, logger),
		signals:       NewSignalStorage(db, logger),
		relationships: NewRelationshipStorage(db, logger),
		scanRuns:      NewScanRunStorage(db, logger),
		logger:        logger,
	}, nil
}

// Companies returns the company roster storage
func (m *Manager) Companies() interfaces.CompanyStorage {
	return m.companies
}

// Scores returns the company score storage
func (m *Manager) Scores() interfaces.ScoreStorage {
	return m.scores
}

// Signals returns the signal storage
func (m *Manager) Signals() interfaces.SignalStorage {
	return m.signals
}

// Relationships returns the relationship storage
func (m *Manager) Relationships() interfaces.RelationshipStorage {
	return m.relationships
}

// ScanRuns returns the scan-run storage
func (m *Manager) ScanRuns() interfaces.ScanRunStorage {
	return m.scanRuns
}

// Close closes the underlying database
func (m *Manager) Close() error {
	return m.db.Close()
}
