// Package models defines the core entities of the supply-chain bottleneck
// scan: the company roster, per-run financial snapshots, persisted scores,
// signals, relationships, and scan-run lifecycle records.
package models

// Company is a tracked company in the supply-chain roster.
// The roster is owned externally and read-only to the scan.
type Company struct {
	ID       string `json:"id" yaml:"id"`
	Ticker   string `json:"ticker" yaml:"ticker"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Hand-authored supply-chain edges used to seed the relationships table.
	Suppliers []string `json:"suppliers,omitempty" yaml:"suppliers,omitempty"`
	Customers []string `json:"customers,omitempty" yaml:"customers,omitempty"`
}
