package models

import "time"

// RelationType classifies a directed edge between two companies.
type RelationType string

const (
	RelationSupplier   RelationType = "supplier"
	RelationCustomer   RelationType = "customer"
	RelationPartner    RelationType = "partner"
	RelationCompetitor RelationType = "competitor"
	RelationOther      RelationType = "other"
)

// Relationship is a directed supply-chain edge between two known companies.
// Rows are unique on (from_company_id, to_company_id, rel_type);
// re-discovery updates confidence/notes/last_seen instead of duplicating.
type Relationship struct {
	FromCompanyID string       `json:"from_company_id"`
	ToCompanyID   string       `json:"to_company_id"`
	RelType       RelationType `json:"rel_type"`
	Confidence    float64      `json:"confidence"`
	Notes         string       `json:"notes"`
	Source        string       `json:"source"`
	LastSeen      time.Time    `json:"last_seen"`
}
