package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CaseSummary is the part of a Case that is reported alongside a result.
type CaseSummary struct {
	VictimName   string     `json:"victim_name,omitempty"`
	Age          int        `json:"age"`
	Residency    Residency  `json:"residency"`
	Region       string     `json:"region"`
	IncidentDate string     `json:"incident_date"`
	InjuryKind   InjuryKind `json:"injury_kind"`
	Grades       []int      `json:"grades,omitempty"`
}

func SummaryOf(c *Case) CaseSummary {
	var grades []int
	if c.Injury.Kind == InjuryDisability {
		grades = append(grades, c.Injury.Grades...)
	}
	return CaseSummary{
		VictimName:   c.VictimName,
		Age:          c.Age,
		Residency:    c.Residency,
		Region:       c.Region,
		IncidentDate: c.IncidentDate.Format(time.DateOnly),
		InjuryKind:   c.Injury.Kind,
		Grades:       grades,
	}
}

type Subtotal struct {
	Group  Group           `json:"group"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// ComputationResult is the immutable outcome of evaluating one Case.
// Re-evaluation produces a new value; nothing mutates a result after
// Aggregate returns it.
type ComputationResult struct {
	ResultID       string               `json:"result_id"`
	Case           CaseSummary          `json:"case"`
	Items          []LineItem           `json:"items"`
	Subtotals      []Subtotal           `json:"subtotals"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	LiabilityRatio decimal.Decimal      `json:"liability_ratio"`
	GrandTotal     decimal.Decimal      `json:"grand_total"`
	TableVersion   string               `json:"table_version"`
	Messages       []CalculationMessage `json:"messages"`
}

// Complete reports whether r carries everything a document needs.
func (r *ComputationResult) Complete() bool {
	return r != nil && len(r.Items) > 0 && r.TableVersion != "" && len(r.Subtotals) > 0
}
