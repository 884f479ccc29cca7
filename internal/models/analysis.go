package models

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// AnalysisScore is one per-company score entry emitted by the model's
// submit_analysis tool call.
type AnalysisScore struct {
	CompanyID        string         `json:"company_id" validate:"required"`
	BottleneckScore  float64        `json:"bottleneck_score" validate:"gte=0,lte=100"`
	BeneficiaryScore float64        `json:"beneficiary_score" validate:"gte=0,lte=100"`
	Breakdown        ScoreBreakdown `json:"breakdown" validate:"required"`
}

// AnalysisSignal is one extracted supply-chain signal.
type AnalysisSignal struct {
	CompanyID  string          `json:"company_id" validate:"required"`
	SignalType string          `json:"signal_type" validate:"required"`
	Direction  SignalDirection `json:"direction" validate:"required,oneof=up down flat unknown"`
	Magnitude  float64         `json:"magnitude"`
	Summary    string          `json:"summary" validate:"required"`
	Source     string          `json:"source" validate:"required"`
}

// AnalysisRelationship is one discovered supply-chain edge.
type AnalysisRelationship struct {
	FromCompanyID string       `json:"from_company_id" validate:"required"`
	ToCompanyID   string       `json:"to_company_id" validate:"required"`
	RelType       RelationType `json:"rel_type" validate:"required,oneof=supplier customer partner competitor other"`
	Confidence    float64      `json:"confidence" validate:"gte=0,lte=1"`
	Notes         string       `json:"notes"`
}

// AnalysisResult is the structured output of one AI analysis batch.
// It is the only shape the orchestrator hands past its boundary; the raw
// tool-call arguments are parsed and validated into it on receipt.
type AnalysisResult struct {
	Scores           []AnalysisScore        `json:"scores" validate:"dive"`
	Signals          []AnalysisSignal       `json:"signals" validate:"dive"`
	NewRelationships []AnalysisRelationship `json:"new_relationships" validate:"dive"`
}

// ParseAnalysisResult decodes and validates the submit_analysis tool-call
// arguments.
func ParseAnalysisResult(raw string) (*AnalysisResult, error) {
	var result AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis result: %w", err)
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}

// Validate checks the result against the analysis schema.
func (r *AnalysisResult) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("analysis result failed schema validation: %w", err)
	}
	return nil
}

// FilterToKnownCompanies drops score/signal/relationship entries that
// reference company IDs outside the roster. The model is instructed to only
// emit known IDs, but the constraint is enforced here regardless.
func (r *AnalysisResult) FilterToKnownCompanies(knownIDs []string) {
	known := make(map[string]bool, len(knownIDs))
	for _, id := range knownIDs {
		known[id] = true
	}

	scores := r.Scores[:0]
	for _, s := range r.Scores {
		if known[s.CompanyID] {
			scores = append(scores, s)
		}
	}
	r.Scores = scores

	signals := r.Signals[:0]
	for _, s := range r.Signals {
		if known[s.CompanyID] {
			signals = append(signals, s)
		}
	}
	r.Signals = signals

	rels := r.NewRelationships[:0]
	for _, rel := range r.NewRelationships {
		if known[rel.FromCompanyID] && known[rel.ToCompanyID] {
			rels = append(rels, rel)
		}
	}
	r.NewRelationships = rels
}
