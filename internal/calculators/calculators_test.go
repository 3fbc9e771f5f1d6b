package calculators

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func testRow() *paramtable.Row {
	return &paramtable.Row{
		Year:                   2025,
		Region:                 "guangxi",
		Residency:              model.ResidencyUrban,
		DisposableIncome:       d("30000"),
		ConsumptionExpenditure: d("20000"),
		AverageWage:            d("36500"),
		FuneralBase:            d("96000"),
		DailyMealSubsidy:       d("100"),
		DailyNursingRate:       d("150"),
		DailyAccommodationRate: d("300"),
		IndustryWages:          map[string]decimal.Decimal{"finance": d("73000")},
	}
}

func baseCase() *model.Case {
	return &model.Case{
		Age:            40,
		Residency:      model.ResidencyUrban,
		Region:         "guangxi",
		IncidentDate:   time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		LiabilityRatio: d("1"),
		Injury:         model.Injury{Kind: model.InjuryNone},
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func requireComputationError(t *testing.T, err error, category model.Category, field string) {
	t.Helper()
	var cerr *model.ComputationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, category, cerr.Category)
	assert.Equal(t, field, cerr.Field)
}

func TestCompensationYears(t *testing.T) {
	for age, want := range map[int]int{0: 20, 40: 20, 55: 20, 60: 20, 61: 19, 70: 10, 74: 6, 75: 5, 90: 5} {
		assert.Equal(t, want, CompensationYears(age), "age %d", age)
	}
	prev := CompensationYears(0)
	for age := 1; age <= 120; age++ {
		y := CompensationYears(age)
		assert.LessOrEqual(t, y, prev, "age %d", age)
		assert.GreaterOrEqual(t, y, 1, "age %d", age)
		prev = y
	}
}

func TestDependentYears(t *testing.T) {
	for age, want := range map[int]int{0: 18, 10: 8, 17: 1, 18: 20, 65: 15, 80: 5} {
		assert.Equal(t, want, DependentYears(age), "age %d", age)
	}
}

func TestGradeCoefficientsStrictlyDecreasing(t *testing.T) {
	for g := 2; g <= 10; g++ {
		hi, ok := GradeCoefficient(g - 1)
		require.True(t, ok)
		lo, ok := GradeCoefficient(g)
		require.True(t, ok)
		assert.True(t, lo.LessThan(hi), "grade %d", g)
	}
	_, ok := GradeCoefficient(0)
	assert.False(t, ok)
	_, ok = GradeCoefficient(11)
	assert.False(t, ok)

	assert.Error(t, checkDecreasing([]decimal.Decimal{d("1.0"), d("0.9"), d("0.9")}))
	assert.NoError(t, checkDecreasing(gradeCoefficients[1:]))
}

func TestDisabilityCoefficient(t *testing.T) {
	cases := []struct {
		grades           []int
		value            string
		additional       string
		additionalCapped bool
		valueCapped      bool
	}{
		{grades: []int{8}, value: "0.3", additional: "0"},
		{grades: []int{8, 8}, value: "0.3", additional: "0"},
		{grades: []int{10, 8}, value: "0.32", additional: "0.02"},
		{grades: []int{6, 4}, value: "0.72", additional: "0.02"},
		{grades: []int{7, 3}, value: "0.82", additional: "0.02"},
		{grades: []int{8, 3, 5}, value: "0.86", additional: "0.06"},
		{grades: []int{2, 3, 4, 5}, value: "1.0", additional: "0.10", additionalCapped: true},
		{grades: []int{1, 2}, value: "1", additional: "0.04", valueCapped: true},
	}
	for _, tc := range cases {
		co, err := DisabilityCoefficient(tc.grades)
		require.NoError(t, err, "%v", tc.grades)
		assertAmount(t, tc.value, co.Value)
		assertAmount(t, tc.additional, co.Additional)
		assert.Equal(t, tc.additionalCapped, co.AdditionalCapped, "%v", tc.grades)
		assert.Equal(t, tc.valueCapped, co.ValueCapped, "%v", tc.grades)
	}

	_, err := DisabilityCoefficient(nil)
	assert.Error(t, err)
	_, err = DisabilityCoefficient([]int{3, 11})
	assert.Error(t, err)
}

func TestDisabilityWorkedExample(t *testing.T) {
	c := baseCase()
	c.Injury = model.Injury{Kind: model.InjuryDisability, Grades: []int{8}}

	item, msgs, err := Disability{}.Compute(c, testRow())
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, model.CategoryDisabilityCompensation, item.Category)
	assertAmount(t, "180000", item.Amount)
	assert.Equal(t, "disability.income_x_coefficient_x_years", item.FormulaID)
}

func TestDisabilityReducedForAge(t *testing.T) {
	c := baseCase()
	c.Age = 65
	c.Injury = model.Injury{Kind: model.InjuryDisability, Grades: []int{1, 2}}

	item, msgs, err := Disability{}.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "450000", item.Amount) // 30000 × 1.0 × 15

	var codes []string
	for _, m := range msgs {
		codes = append(codes, m.Code)
	}
	assert.Equal(t, []string{"COEFFICIENT_CAPPED", "YEARS_REDUCED_FOR_AGE"}, codes)
}

func TestDisabilityWithoutGrade(t *testing.T) {
	c := baseCase()
	c.Injury = model.Injury{Kind: model.InjuryDisability}
	_, _, err := Disability{}.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryDisabilityCompensation, "disability_grades")
}

func TestLostIncome(t *testing.T) {
	cases := map[string]struct {
		income  *model.IncomeEvidence
		days    int
		want    string
		formula string
	}{
		"fixed monthly":   {&model.IncomeEvidence{Kind: model.IncomeFixedMonthly, Amount: d("6000")}, 30, "6000", "lost_income.monthly_div_30"},
		"daily average":   {&model.IncomeEvidence{Kind: model.IncomeDailyAverage, Amount: d("250")}, 10, "2500", "lost_income.evidenced_daily"},
		"industry":        {&model.IncomeEvidence{Kind: model.IncomeIndustry, Industry: "finance"}, 5, "1000", "lost_income.industry_wage_div_365"},
		"no evidence":     {nil, 3, "300", "lost_income.average_wage_div_365"},
		"zero days owed":  {nil, 0, "0", "lost_income.average_wage_div_365"},
		"fractional rate": {&model.IncomeEvidence{Kind: model.IncomeFixedMonthly, Amount: d("5000")}, 6, "1000", "lost_income.monthly_div_30"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := baseCase()
			c.Income = tc.income
			c.IncapacityDays = tc.days
			item, _, err := LostIncome{}.Compute(c, testRow())
			require.NoError(t, err)
			assertAmount(t, tc.want, item.Amount.Round(2))
			assert.Equal(t, tc.formula, item.FormulaID)
		})
	}
}

func TestLostIncomeKeepsFullPrecision(t *testing.T) {
	c := baseCase()
	c.Income = &model.IncomeEvidence{Kind: model.IncomeFixedMonthly, Amount: d("5000")}
	c.IncapacityDays = 7

	item, _, err := LostIncome{}.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "1166.67", item.DisplayAmount())
	assert.False(t, item.Amount.Equal(item.DisplayAmount()), "amount was rounded early: %s", item.Amount)
}

func TestLostIncomeErrors(t *testing.T) {
	c := baseCase()
	c.IncapacityDays = 5
	c.Income = &model.IncomeEvidence{Kind: model.IncomeIndustry, Industry: "astronautics"}
	_, _, err := LostIncome{}.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryLostIncome, "income.industry")

	c.Income = nil
	c.IncapacityDays = -1
	_, _, err = LostIncome{}.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryLostIncome, "incapacity_days")
}

func TestNursing(t *testing.T) {
	c := baseCase()
	c.Nursing = &model.NursingCare{Days: 10, Caregivers: 2, CareLevel: d("0.5")}
	item, _, err := Nursing{}.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "1500", item.Amount)
	assert.Equal(t, "nursing.service_rate_x_days_x_caregivers_x_level", item.FormulaID)

	c.Nursing = &model.NursingCare{Days: 10, Caregivers: 1, CareLevel: d("1"), DailyIncome: dp("200")}
	item, _, err = Nursing{}.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "2000", item.Amount)
	assert.Equal(t, "nursing.caregiver_income_x_days_x_caregivers_x_level", item.FormulaID)
}

func TestNursingErrors(t *testing.T) {
	row := testRow()
	row.DailyNursingRate = decimal.Zero

	c := baseCase()
	c.Nursing = &model.NursingCare{Days: 10, Caregivers: 1, CareLevel: d("1")}
	_, _, err := Nursing{}.Compute(c, row)
	requireComputationError(t, err, model.CategoryNursing, "nursing.daily_income")

	c.Nursing = &model.NursingCare{Days: 10, Caregivers: 0, CareLevel: d("1")}
	_, _, err = Nursing{}.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryNursing, "nursing.caregivers")

	c.Nursing = &model.NursingCare{Days: 10, Caregivers: 1, CareLevel: d("1.2")}
	_, _, err = Nursing{}.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryNursing, "nursing.care_level")
}

func TestDeathAndFuneral(t *testing.T) {
	c := baseCase()
	c.Injury = model.Injury{Kind: model.InjuryFatal}

	item, msgs, err := Death{}.Compute(c, testRow())
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assertAmount(t, "600000", item.Amount)

	c.Age = 80
	item, msgs, err = Death{}.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "150000", item.Amount)
	require.Len(t, msgs, 1)
	assert.Equal(t, "YEARS_REDUCED_FOR_AGE", msgs[0].Code)

	item, _, err = Funeral{}.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "48000", item.Amount)

	_, _, err = Death{}.Compute(baseCase(), testRow())
	requireComputationError(t, err, model.CategoryDeathCompensation, "injury")
	_, _, err = Funeral{}.Compute(baseCase(), testRow())
	requireComputationError(t, err, model.CategoryFuneral, "injury")
}

func TestDependents(t *testing.T) {
	cases := map[string]struct {
		injury model.Injury
		deps   []model.Dependent
		want   string
		capped bool
	}{
		"fatal shared child": {
			injury: model.Injury{Kind: model.InjuryFatal},
			deps:   []model.Dependent{{Age: 10, SupportCount: 2}},
			want:   "80000", // 20000 / 2 × 8 years
		},
		"disability scales by coefficient": {
			injury: model.Injury{Kind: model.InjuryDisability, Grades: []int{8}},
			deps:   []model.Dependent{{Age: 10, SupportCount: 2}},
			want:   "24000",
		},
		"yearly cap": {
			injury: model.Injury{Kind: model.InjuryFatal},
			deps:   []model.Dependent{{Age: 10, SupportCount: 1}, {Age: 10, SupportCount: 1}, {Age: 10, SupportCount: 1}},
			want:   "160000", // capped to 20000 for 8 years
			capped: true,
		},
		"cap only while periods overlap": {
			injury: model.Injury{Kind: model.InjuryFatal},
			deps:   []model.Dependent{{Age: 16, SupportCount: 1}, {Age: 70, SupportCount: 2}},
			want:   "120000", // 2 × 20000 (capped) + 8 × 10000
			capped: true,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := baseCase()
			c.Injury = tc.injury
			c.Dependents = tc.deps
			require.True(t, Dependents{}.Applies(c))

			item, msgs, err := Dependents{}.Compute(c, testRow())
			require.NoError(t, err)
			assertAmount(t, tc.want, item.Amount)
			if tc.capped {
				require.Len(t, msgs, 1)
				assert.Equal(t, "ANNUAL_CAP_APPLIED", msgs[0].Code)
			} else {
				assert.Empty(t, msgs)
			}
		})
	}
}

func TestDependentsRequireInjury(t *testing.T) {
	c := baseCase()
	c.Dependents = []model.Dependent{{Age: 5, SupportCount: 1}}
	assert.False(t, Dependents{}.Applies(c))
	_, _, err := Dependents{}.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryDependentsLiving, "injury")
}

func TestDailyFees(t *testing.T) {
	c := baseCase()
	c.Accommodation = model.DailyExpense{Days: 2}
	c.Transportation = model.DailyExpense{Days: 4, Rate: dp("50")}
	c.HospitalDays = 7

	item, _, err := accommodation.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "600", item.Amount)
	assert.Equal(t, "accommodation.table_rate_x_days", item.FormulaID)

	item, _, err = transportation.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "200", item.Amount)
	assert.Equal(t, "transportation.evidenced_rate_x_days", item.FormulaID)

	item, _, err = hospitalMeal.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "700", item.Amount)
}

func TestHospitalMealEvidencedRate(t *testing.T) {
	c := baseCase()
	c.HospitalDays = 10
	c.HospitalMealRate = dp("30")

	item, _, err := hospitalMeal.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "300", item.Amount)
	assert.Equal(t, "hospital_meal.evidenced_rate_x_days", item.FormulaID)

	row := testRow()
	row.DailyMealSubsidy = decimal.Zero
	c.HospitalMealRate = nil
	_, _, err = hospitalMeal.Compute(c, row)
	requireComputationError(t, err, model.CategoryHospitalMeal, "hospital_meal.rate")
}

func TestDailyFeeWithoutRate(t *testing.T) {
	c := baseCase()
	c.Nutrition = model.DailyExpense{Days: 30}
	_, _, err := nutrition.Compute(c, testRow())
	requireComputationError(t, err, model.CategoryNutrition, "nutrition.rate")
}

func TestEvidencedAmounts(t *testing.T) {
	c := baseCase()
	c.Evidenced.Medical = d("12345.678")

	calc := calculatorFor(t, model.CategoryMedical)
	require.True(t, calc.Applies(c))
	item, _, err := calc.Compute(c, testRow())
	require.NoError(t, err)
	assertAmount(t, "12345.678", item.Amount)
	assert.Equal(t, "evidenced.amount", item.FormulaID)

	calc = calculatorFor(t, model.CategoryMentalDistress)
	assert.False(t, calc.Applies(c))
}

func calculatorFor(t *testing.T, category model.Category) Calculator {
	t.Helper()
	for _, calc := range All() {
		if calc.Category() == category {
			return calc
		}
	}
	t.Fatalf("no calculator for %s", category)
	return nil
}

func TestRegistryCoversCanonicalOrder(t *testing.T) {
	all := All()
	require.Len(t, all, len(model.CanonicalOrder))
	for i, calc := range all {
		assert.Equal(t, model.CanonicalOrder[i], calc.Category())
	}
}
