package calculators

import (
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// Nursing computes the nursing-care fee:
// daily_rate × nursing_days × caregivers × care_level.
//
// A caregiver with evidenced income is paid at that income; otherwise the
// local nursing-service rate applies.
type Nursing struct{}

func (Nursing) Category() model.Category { return model.CategoryNursing }

func (Nursing) Applies(c *model.Case) bool { return c.Nursing != nil && c.Nursing.Days > 0 }

func (n Nursing) Compute(c *model.Case, row *paramtable.Row) (model.LineItem, []model.CalculationMessage, error) {
	care := c.Nursing
	switch {
	case care == nil:
		return model.LineItem{}, nil, computationError(n.Category(), "nursing", "no nursing care facts")
	case care.Days < 0:
		return model.LineItem{}, nil, computationError(n.Category(), "nursing.days", "negative day count")
	case care.Caregivers < 1:
		return model.LineItem{}, nil, computationError(n.Category(), "nursing.caregivers", "at least one caregiver is required")
	case !care.CareLevel.IsPositive() || care.CareLevel.GreaterThan(one):
		return model.LineItem{}, nil, computationError(n.Category(), "nursing.care_level", "care level must be within (0,1]")
	}

	rate, formula := row.DailyNursingRate, "nursing.service_rate_x_days_x_caregivers_x_level"
	if care.DailyIncome != nil {
		rate, formula = *care.DailyIncome, "nursing.caregiver_income_x_days_x_caregivers_x_level"
	}
	if !rate.IsPositive() {
		return model.LineItem{}, nil, computationError(n.Category(), "nursing.daily_income",
			"no caregiver income evidenced and table "+row.Key().String()+" has no nursing-service rate")
	}

	amount := rate.
		Mul(decimal.NewFromInt(int64(care.Days))).
		Mul(decimal.NewFromInt(int64(care.Caregivers))).
		Mul(care.CareLevel)

	return model.LineItem{
		Category:  n.Category(),
		Amount:    amount,
		FormulaID: formula,
		Factors: []model.Factor{
			factor("daily_rate", rate, "CNY/day"),
			intFactor("nursing_days", care.Days, "days"),
			intFactor("caregivers", care.Caregivers, "persons"),
			factor("care_level", care.CareLevel, ""),
		},
	}, nil, nil
}
