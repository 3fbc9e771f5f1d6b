package calculators

import (
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// dailyFee is daily_rate × certified_days where the rate is evidenced by
// the case or, failing that, taken from the parameter table.
type dailyFee struct {
	category  model.Category
	field     string
	days      func(c *model.Case) int
	evidenced func(c *model.Case) *decimal.Decimal
	tableRate func(r *paramtable.Row) decimal.Decimal
}

var (
	transportation = dailyFee{
		category:  model.CategoryTransportation,
		field:     "transportation",
		days:      func(c *model.Case) int { return c.Transportation.Days },
		evidenced: func(c *model.Case) *decimal.Decimal { return c.Transportation.Rate },
		tableRate: func(r *paramtable.Row) decimal.Decimal { return r.DailyTransportRate },
	}
	accommodation = dailyFee{
		category:  model.CategoryAccommodation,
		field:     "accommodation",
		days:      func(c *model.Case) int { return c.Accommodation.Days },
		evidenced: func(c *model.Case) *decimal.Decimal { return c.Accommodation.Rate },
		tableRate: func(r *paramtable.Row) decimal.Decimal { return r.DailyAccommodationRate },
	}
	nutrition = dailyFee{
		category:  model.CategoryNutrition,
		field:     "nutrition",
		days:      func(c *model.Case) int { return c.Nutrition.Days },
		evidenced: func(c *model.Case) *decimal.Decimal { return c.Nutrition.Rate },
		tableRate: func(r *paramtable.Row) decimal.Decimal { return r.DailyNutritionRate },
	}
	hospitalMeal = dailyFee{
		category:  model.CategoryHospitalMeal,
		field:     "hospital_meal",
		days:      func(c *model.Case) int { return c.HospitalDays },
		evidenced: func(c *model.Case) *decimal.Decimal { return c.HospitalMealRate },
		tableRate: func(r *paramtable.Row) decimal.Decimal { return r.DailyMealSubsidy },
	}
)

func (f dailyFee) Category() model.Category { return f.category }

func (f dailyFee) Applies(c *model.Case) bool { return f.days(c) > 0 }

func (f dailyFee) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	days := f.days(c)
	if days < 0 {
		return model.LineItem{}, nil, computationError(f.category, f.field, "negative day count")
	}

	formula := string(f.category) + ".table_rate_x_days"
	rate := f.tableRate(row)
	if ev := f.evidenced(c); ev != nil {
		if ev.IsNegative() {
			return model.LineItem{}, nil, computationError(f.category, f.field+".rate", "negative rate")
		}
		rate = *ev
		formula = string(f.category) + ".evidenced_rate_x_days"
	} else if !rate.IsPositive() {
		return model.LineItem{}, nil, computationError(f.category, f.field+".rate",
			"no rate evidenced and table "+row.Key().String()+" has none")
	}

	return model.LineItem{
		Category:  f.category,
		Amount:    rate.Mul(decimal.NewFromInt(int64(days))),
		FormulaID: formula,
		Factors: []model.Factor{
			factor("daily_rate", rate, "CNY/day"),
			intFactor("days", days, "days"),
		},
	}, nil, nil
}
