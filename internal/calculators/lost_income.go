package calculators

import (
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// LostIncome compensates income lost during the certified incapacity
// period: daily_rate × incapacity_days.
type LostIncome struct{}

func (LostIncome) Category() model.Category { return model.CategoryLostIncome }

func (LostIncome) Applies(c *model.Case) bool { return c.IncapacityDays > 0 }

func (l LostIncome) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	if c.IncapacityDays < 0 {
		return model.LineItem{}, nil, computationError(l.Category(), "incapacity_days", "negative day count")
	}

	rate, formula, factors, err := dailyIncome(c, row)
	if err != nil {
		return model.LineItem{}, nil, err
	}
	days := decimal.NewFromInt(int64(c.IncapacityDays))

	return model.LineItem{
		Category:  l.Category(),
		Amount:    rate.Mul(days),
		FormulaID: formula,
		Factors:   append(factors, factor("daily_rate", rate, "CNY/day"), intFactor("incapacity_days", c.IncapacityDays, "days")),
	}, nil, nil
}

// dailyIncome derives the claimant's daily rate from the strongest income
// evidence available. Without evidence the region's average wage applies.
func dailyIncome(c *model.Case, row *paramtable.Row) (decimal.Decimal, string, []model.Factor, error) {
	if c.Income == nil {
		return row.AverageWage.Div(yearDays), "lost_income.average_wage_div_365",
			[]model.Factor{factor("average_wage", row.AverageWage, "CNY/year")}, nil
	}

	switch c.Income.Kind {
	case model.IncomeFixedMonthly:
		if !c.Income.Amount.IsPositive() {
			return decimal.Zero, "", nil, computationError(model.CategoryLostIncome, "income.monthly_income", "monthly income must be positive")
		}
		return c.Income.Amount.Div(thirty), "lost_income.monthly_div_30",
			[]model.Factor{factor("monthly_income", c.Income.Amount, "CNY/month")}, nil
	case model.IncomeDailyAverage:
		if !c.Income.Amount.IsPositive() {
			return decimal.Zero, "", nil, computationError(model.CategoryLostIncome, "income.daily_income", "daily income must be positive")
		}
		return c.Income.Amount, "lost_income.evidenced_daily",
			[]model.Factor{factor("daily_income", c.Income.Amount, "CNY/day")}, nil
	case model.IncomeIndustry:
		wage, ok := row.IndustryWage(c.Income.Industry)
		if !ok {
			return decimal.Zero, "", nil, computationError(model.CategoryLostIncome, "income.industry",
				"no average wage for industry "+c.Income.Industry+" in table "+row.Key().String())
		}
		return wage.Div(yearDays), "lost_income.industry_wage_div_365",
			[]model.Factor{factor("industry_wage", wage, "CNY/year")}, nil
	default:
		return decimal.Zero, "", nil, computationError(model.CategoryLostIncome, "income.kind", "unknown income kind "+string(c.Income.Kind))
	}
}
