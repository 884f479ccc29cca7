package models

import "time"

// ScoreBreakdown explains how a company's scores were derived.
type ScoreBreakdown struct {
	ConcentrationRisk float64 `json:"concentration_risk" validate:"gte=0,lte=100"`
	FinancialHealth   float64 `json:"financial_health" validate:"gte=0,lte=100"`
	SignalStrength    float64 `json:"signal_strength" validate:"gte=0,lte=100"`
	Reason            string  `json:"reason" validate:"required"`
}

// CompanyScore is the persisted per-company risk assessment. Exactly one
// row exists per company; each scan fully replaces the previous values.
type CompanyScore struct {
	CompanyID        string         `json:"company_id"`
	BottleneckScore  float64        `json:"bottleneck_score"`
	BeneficiaryScore float64        `json:"beneficiary_score"`
	Breakdown        ScoreBreakdown `json:"breakdown"`
	ComputedAt       time.Time      `json:"computed_at"`
}
