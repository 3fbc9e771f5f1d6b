package calculators

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// Dependents computes dependants' living expenses.
//
// Each dependant is owed consumption ÷ support_count per year for
// DependentYears(age) years. The yearly total across all dependants may not
// exceed one year's consumption expenditure. For a disabled victim the
// total is scaled by the disability coefficient; for a fatal injury it is
// owed in full.
type Dependents struct{}

func (Dependents) Category() model.Category { return model.CategoryDependentsLiving }

func (Dependents) Applies(c *model.Case) bool {
	return len(c.Dependents) > 0 &&
		(c.Injury.Kind == model.InjuryDisability || c.Injury.Kind == model.InjuryFatal)
}

func (d Dependents) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	if len(c.Dependents) == 0 {
		return model.LineItem{}, nil, computationError(d.Category(), "dependents", "no dependants")
	}

	coefficient := one
	var msgs []model.CalculationMessage
	switch c.Injury.Kind {
	case model.InjuryFatal:
	case model.InjuryDisability:
		co, err := DisabilityCoefficient(c.Injury.Grades)
		if err != nil {
			return model.LineItem{}, nil, computationError(d.Category(), "disability_grades", err.Error())
		}
		coefficient = co.Value
	default:
		return model.LineItem{}, nil, computationError(d.Category(), "injury", "dependants' living expenses require a disability or fatal injury")
	}

	consumption := row.ConsumptionExpenditure
	years := make([]int, len(c.Dependents))
	annual := make([]decimal.Decimal, len(c.Dependents))
	maxYears := 0
	factors := []model.Factor{factor("consumption_expenditure", consumption, "CNY/year")}

	for i, dep := range c.Dependents {
		field := "dependents[" + strconv.Itoa(i) + "]"
		if dep.Age < 0 {
			return model.LineItem{}, nil, computationError(d.Category(), field+".age", "negative age")
		}
		if dep.SupportCount < 1 {
			return model.LineItem{}, nil, computationError(d.Category(), field+".support_count", "support count must be at least 1")
		}
		years[i] = DependentYears(dep.Age)
		annual[i] = consumption.Div(decimal.NewFromInt(int64(dep.SupportCount)))
		if years[i] > maxYears {
			maxYears = years[i]
		}
		factors = append(factors,
			intFactor(field+".years", years[i], "years"),
			factor(field+".annual", annual[i], "CNY/year"),
		)
	}

	total := decimal.Zero
	capped := 0
	for y := 0; y < maxYears; y++ {
		yearTotal := decimal.Zero
		for i := range c.Dependents {
			if y < years[i] {
				yearTotal = yearTotal.Add(annual[i])
			}
		}
		if yearTotal.GreaterThan(consumption) {
			yearTotal = consumption
			capped++
		}
		total = total.Add(yearTotal)
	}
	if capped > 0 {
		msgs = append(msgs, info(d.Category(), "ANNUAL_CAP_APPLIED",
			fmt.Sprintf("combined support capped at one year's consumption expenditure in %d of %d years", capped, maxYears)))
	}

	factors = append(factors,
		factor("unscaled_total", total, "CNY"),
		factor("coefficient", coefficient, ""),
	)

	return model.LineItem{
		Category:  d.Category(),
		Amount:    total.Mul(coefficient),
		FormulaID: "dependents.capped_yearly_support_x_coefficient",
		Factors:   factors,
	}, msgs, nil
}
