package model

import json "github.com/goccy/go-json"

type CalculationResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	CalculationResult   *ComputationResult  `json:"calculation_result"`
}

type CalculationMetadata struct {
	CalculationID          string `json:"calculation_id"`
	CalculationStartedAt   string `json:"calculation_started_at"`
	CalculationCompletedAt string `json:"calculation_completed_at"`
	CalculationDurationMs  int64  `json:"calculation_duration_ms"`
	CalculationOutcome     string `json:"calculation_outcome"`
}

type CompareRequest struct {
	Baseline CaseRequest `json:"baseline"`
	Revised  CaseRequest `json:"revised"`
}

type CompareResponse struct {
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	Baseline            *ComputationResult  `json:"baseline"`
	Revised             *ComputationResult  `json:"revised"`
	Patch               json.RawMessage     `json:"patch"`
}

type ErrorResponse struct {
	Status     int              `json:"status"`
	Kind       string           `json:"kind"`
	Message    string           `json:"message"`
	Violations []FieldViolation `json:"violations,omitempty"`
	Category   Category         `json:"category,omitempty"`
}

const OutcomeSuccess = "SUCCESS"
