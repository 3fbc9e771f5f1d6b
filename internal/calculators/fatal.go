package calculators

import (
	"fmt"

	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// Death computes death compensation:
// disposable_income × CompensationYears(age).
type Death struct{}

func (Death) Category() model.Category { return model.CategoryDeathCompensation }

func (Death) Applies(c *model.Case) bool { return c.Injury.Kind == model.InjuryFatal }

func (d Death) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	if c.Injury.Kind != model.InjuryFatal {
		return model.LineItem{}, nil, computationError(d.Category(), "injury", "death compensation requires a fatal injury")
	}
	years := CompensationYears(c.Age)

	var msgs []model.CalculationMessage
	if years < baseYears {
		msgs = append(msgs, info(d.Category(), "YEARS_REDUCED_FOR_AGE",
			fmt.Sprintf("victim aged %d: compensation period reduced to %d years", c.Age, years)))
	}

	return model.LineItem{
		Category:  d.Category(),
		Amount:    row.DisposableIncome.Mul(decimal.NewFromInt(int64(years))),
		FormulaID: "death.income_x_years",
		Factors: []model.Factor{
			factor("disposable_income", row.DisposableIncome, "CNY/year"),
			intFactor("years", years, "years"),
		},
	}, msgs, nil
}

// Funeral computes funeral expenses as six months of the annual wage base.
type Funeral struct{}

func (Funeral) Category() model.Category { return model.CategoryFuneral }

func (Funeral) Applies(c *model.Case) bool { return c.Injury.Kind == model.InjuryFatal }

func (f Funeral) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	if c.Injury.Kind != model.InjuryFatal {
		return model.LineItem{}, nil, computationError(f.Category(), "injury", "funeral expenses require a fatal injury")
	}
	return model.LineItem{
		Category:  f.Category(),
		Amount:    row.FuneralBase.Mul(monthsSix).Div(twelve),
		FormulaID: "funeral.six_months_of_wage_base",
		Factors: []model.Factor{
			factor("funeral_base", row.FuneralBase, "CNY/year"),
			factor("months", monthsSix, "months"),
		},
	}, nil, nil
}
