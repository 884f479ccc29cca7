// Package interfaces defines the storage and service contracts wired
// together in internal/app, so the coordinator, scheduler and handlers can
// be tested against fakes.
package interfaces

import (
	"context"

	"github.com/ternarybob/chainscan/internal/models"
)

// CompanyStorage manages the company roster.
type CompanyStorage interface {
	Upsert(ctx context.Context, company *models.Company) error
	GetByID(ctx context.Context, id string) (*models.Company, error)
	List(ctx context.Context) ([]*models.Company, error)
	Count(ctx context.Context) (int, error)
}

// ScoreStorage manages per-company risk scores, one row per company.
type ScoreStorage interface {
	Upsert(ctx context.Context, score *models.CompanyScore) error
	GetByCompanyID(ctx context.Context, companyID string) (*models.CompanyScore, error)
	List(ctx context.Context) ([]*models.CompanyScore, error)
}

// SignalStorage manages the append-only signals table. InsertBatch writes
// all rows in a single transaction; a failure inserts nothing.
type SignalStorage interface {
	InsertBatch(ctx context.Context, signals []*models.Signal) error
	List(ctx context.Context, limit int) ([]*models.Signal, error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]*models.Signal, error)
}

// RelationshipStorage manages supply-chain edges, unique on
// (from_company_id, to_company_id, rel_type).
type RelationshipStorage interface {
	Upsert(ctx context.Context, rel *models.Relationship) error
	List(ctx context.Context) ([]*models.Relationship, error)
}

// ScanRunStorage manages scan-run lifecycle records. Complete and Fail only
// transition rows still in "running" state and report an error otherwise,
// so a run closes out exactly once.
type ScanRunStorage interface {
	Create(ctx context.Context, triggerType string) (*models.ScanRun, error)
	Complete(ctx context.Context, id string, companiesScanned, signalsFound, relationshipsFound int) error
	Fail(ctx context.Context, id, reason string) error
	GetByID(ctx context.Context, id string) (*models.ScanRun, error)
	List(ctx context.Context, limit int) ([]*models.ScanRun, error)
}

// StorageManager bundles the per-table storages behind one lifecycle.
type StorageManager interface {
	Companies() CompanyStorage
	Scores() ScoreStorage
	Signals() SignalStorage
	Relationships() RelationshipStorage
	ScanRuns() ScanRunStorage
	Close() error
}
