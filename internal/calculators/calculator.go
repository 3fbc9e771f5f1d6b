// Package calculators implements one pure calculation per compensation
// category. Each calculator reads a validated Case and the parameter table
// row resolved for it, and either produces a LineItem or rejects the input
// with a *model.ComputationError. None of them rounds: amounts keep full
// precision until aggregation.
package calculators

import (
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// Calculator computes a single compensation category.
type Calculator interface {
	Category() model.Category
	// Applies reports whether the case carries facts for this category.
	Applies(c *model.Case) bool
	// Compute returns the line item plus informational messages. It fails
	// rather than returning a zero amount when the case is outside its
	// domain.
	Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error)
}

var registry = []Calculator{
	evidenced{category: model.CategoryMedical, field: "medical_expenses", amount: func(c *model.Case) decimal.Decimal { return c.Evidenced.Medical }},
	evidenced{category: model.CategoryFollowUpTreatment, field: "follow_up_treatment", amount: func(c *model.Case) decimal.Decimal { return c.Evidenced.FollowUpTreatment }},
	LostIncome{},
	Nursing{},
	transportation,
	accommodation,
	hospitalMeal,
	nutrition,
	Disability{},
	evidenced{category: model.CategoryDisabilityAppliance, field: "disability_appliance", amount: func(c *model.Case) decimal.Decimal { return c.Evidenced.DisabilityAppliance }},
	Dependents{},
	Death{},
	Funeral{},
	evidenced{category: model.CategoryMentalDistress, field: "mental_distress", amount: func(c *model.Case) decimal.Decimal { return c.Evidenced.MentalDistress }},
}

// All returns every calculator in canonical category order.
func All() []Calculator {
	out := make([]Calculator, len(registry))
	copy(out, registry)
	return out
}

func computationError(category model.Category, field, reason string) error {
	return &model.ComputationError{Category: category, Field: field, Reason: reason}
}

func factor(name string, v decimal.Decimal, unit string) model.Factor {
	return model.Factor{Name: name, Value: v, Unit: unit}
}

func intFactor(name string, v int, unit string) model.Factor {
	return model.Factor{Name: name, Value: decimal.NewFromInt(int64(v)), Unit: unit}
}

func info(category model.Category, code, message string) model.CalculationMessage {
	return model.CalculationMessage{Level: model.LevelInfo, Code: code, Category: category, Message: message}
}

var (
	thirty    = decimal.NewFromInt(30)
	yearDays  = decimal.NewFromInt(365)
	monthsSix = decimal.NewFromInt(6)
	twelve    = decimal.NewFromInt(12)
	one       = decimal.NewFromInt(1)
)
