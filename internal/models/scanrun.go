package models

import "time"

// ScanStatus is the lifecycle state of a scan run.
type ScanStatus string

const (
	ScanStatusRunning   ScanStatus = "running"
	ScanStatusCompleted ScanStatus = "completed"
	ScanStatusFailed    ScanStatus = "failed"
)

// ScanRun tracks one execution of the fetch -> analysis -> persistence
// pipeline. A run is created in "running" and transitions exactly once to
// "completed" or "failed"; both states are terminal.
type ScanRun struct {
	ID                 string     `json:"id"`
	Status             ScanStatus `json:"status"`
	TriggerType        string     `json:"trigger_type"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CompaniesScanned   int        `json:"companies_scanned"`
	SignalsFound       int        `json:"signals_found"`
	RelationshipsFound int        `json:"relationships_found"`
	ErrorMessage       string     `json:"error_message,omitempty"`
}
