package calculators

import (
	"fmt"

	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// Disability computes disability compensation:
// disposable_income × coefficient(grades) × CompensationYears(age).
type Disability struct{}

func (Disability) Category() model.Category { return model.CategoryDisabilityCompensation }

func (Disability) Applies(c *model.Case) bool { return c.Injury.Kind == model.InjuryDisability }

func (d Disability) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	if c.Injury.Kind != model.InjuryDisability || len(c.Injury.Grades) == 0 {
		return model.LineItem{}, nil, computationError(d.Category(), "disability_grades", "no disability grade")
	}
	co, err := DisabilityCoefficient(c.Injury.Grades)
	if err != nil {
		return model.LineItem{}, nil, computationError(d.Category(), "disability_grades", err.Error())
	}
	years := CompensationYears(c.Age)

	amount := row.DisposableIncome.Mul(co.Value).Mul(decimal.NewFromInt(int64(years)))

	var msgs []model.CalculationMessage
	msgs = append(msgs, coefficientNotes(d.Category(), co)...)
	if years < baseYears {
		msgs = append(msgs, info(d.Category(), "YEARS_REDUCED_FOR_AGE",
			fmt.Sprintf("victim aged %d: compensation period reduced to %d years", c.Age, years)))
	}

	return model.LineItem{
		Category:  d.Category(),
		Amount:    amount,
		FormulaID: "disability.income_x_coefficient_x_years",
		Factors: []model.Factor{
			factor("disposable_income", row.DisposableIncome, "CNY/year"),
			intFactor("primary_grade", co.PrimaryGrade, ""),
			factor("base_coefficient", co.Base, ""),
			factor("additional_index", co.Additional, ""),
			factor("coefficient", co.Value, ""),
			intFactor("years", years, "years"),
		},
	}, msgs, nil
}

func coefficientNotes(category model.Category, co Coefficient) []model.CalculationMessage {
	var msgs []model.CalculationMessage
	if co.AdditionalCapped {
		msgs = append(msgs, info(category, "ADDITIONAL_INDEX_CAPPED", "additional disability index capped at 10%"))
	}
	if co.ValueCapped {
		msgs = append(msgs, info(category, "COEFFICIENT_CAPPED", "disability coefficient capped at 100%"))
	}
	return msgs
}
