package models

import "time"

// SignalDirection is the trajectory of an observed signal.
type SignalDirection string

const (
	SignalDirectionUp      SignalDirection = "up"
	SignalDirectionDown    SignalDirection = "down"
	SignalDirectionFlat    SignalDirection = "flat"
	SignalDirectionUnknown SignalDirection = "unknown"
)

// Signal is a discrete timestamped observation about a company's
// supply/demand trajectory. The signals table is append-only; rows are
// never updated or deduplicated here.
type Signal struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	SignalType string          `json:"signal_type"`
	Direction  SignalDirection `json:"direction"`
	Magnitude  float64         `json:"magnitude"`
	Summary    string          `json:"summary"`
	Source     string          `json:"source"`
	CreatedAt  time.Time       `json:"created_at"`
}
