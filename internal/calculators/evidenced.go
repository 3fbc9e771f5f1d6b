package calculators

import (
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// evidenced carries an amount proven by the case itself, such as medical
// receipts or an awarded solatium.
type evidenced struct {
	category model.Category
	field    string
	amount   func(c *model.Case) decimal.Decimal
}

func (e evidenced) Category() model.Category { return e.category }

func (e evidenced) Applies(c *model.Case) bool { return e.amount(c).IsPositive() }

func (e evidenced) Compute(c *model.Case, _ *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	v := e.amount(c)
	if v.IsNegative() {
		return model.LineItem{}, nil, computationError(e.category, e.field, "negative amount")
	}
	return model.LineItem{
		Category:  e.category,
		Amount:    v,
		FormulaID: "evidenced.amount",
		Factors:   []model.Factor{factor(e.field, v, "CNY")},
	}, nil, nil
}
