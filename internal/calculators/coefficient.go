package calculators

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// gradeCoefficients is indexed by disability grade; index 0 is unused.
var gradeCoefficients = [11]decimal.Decimal{
	{},
	decimal.RequireFromString("1.0"),
	decimal.RequireFromString("0.9"),
	decimal.RequireFromString("0.8"),
	decimal.RequireFromString("0.7"),
	decimal.RequireFromString("0.6"),
	decimal.RequireFromString("0.5"),
	decimal.RequireFromString("0.4"),
	decimal.RequireFromString("0.3"),
	decimal.RequireFromString("0.2"),
	decimal.RequireFromString("0.1"),
}

var (
	severeAddition = decimal.RequireFromString("0.04")
	lesserAddition = decimal.RequireFromString("0.02")
	additionCap    = decimal.RequireFromString("0.10")
	coefficientCap = decimal.NewFromInt(1)
)

func init() {
	if err := checkDecreasing(gradeCoefficients[1:]); err != nil {
		panic(err)
	}
}

func checkDecreasing(coeffs []decimal.Decimal) error {
	for i := 1; i < len(coeffs); i++ {
		if !coeffs[i].LessThan(coeffs[i-1]) {
			return fmt.Errorf("disability coefficient for grade %d (%s) is not below grade %d (%s)",
				i+1, coeffs[i], i, coeffs[i-1])
		}
	}
	return nil
}

// GradeCoefficient returns the coefficient for a single grade in [1,10].
func GradeCoefficient(grade int) (decimal.Decimal, bool) {
	if grade < 1 || grade > 10 {
		return decimal.Zero, false
	}
	return gradeCoefficients[grade], true
}

// Coefficient is the combined disability coefficient of one or more
// graded injuries.
type Coefficient struct {
	PrimaryGrade int
	Base         decimal.Decimal
	Additional   decimal.Decimal
	Value        decimal.Decimal

	AdditionalCapped bool
	ValueCapped      bool
}

// DisabilityCoefficient combines grades: the most severe grade sets the
// base coefficient and every further distinct grade adds 4% (grades 2-5)
// or 2% (grades 6-10). The additional index is capped at 10% and the
// result at 100%.
func DisabilityCoefficient(grades []int) (Coefficient, error) {
	if len(grades) == 0 {
		return Coefficient{}, fmt.Errorf("no disability grade")
	}
	seen := make(map[int]bool, len(grades))
	primary := 11
	for _, g := range grades {
		if _, ok := GradeCoefficient(g); !ok {
			return Coefficient{}, fmt.Errorf("disability grade %d out of range [1,10]", g)
		}
		seen[g] = true
		if g < primary {
			primary = g
		}
	}

	co := Coefficient{PrimaryGrade: primary, Base: gradeCoefficients[primary], Additional: decimal.Zero}
	for g := range seen {
		switch {
		case g == primary:
		case g <= 5:
			co.Additional = co.Additional.Add(severeAddition)
		default:
			co.Additional = co.Additional.Add(lesserAddition)
		}
	}
	if co.Additional.GreaterThan(additionCap) {
		co.Additional = additionCap
		co.AdditionalCapped = true
	}
	co.Value = co.Base.Add(co.Additional)
	if co.Value.GreaterThan(coefficientCap) {
		co.Value = coefficientCap
		co.ValueCapped = true
	}
	return co, nil
}
