package calculators

const (
	baseYears      = 20
	reductionStart = 60
	reductionFloor = 75
	floorYears     = 5
	ageOfMajority  = 18
)

// CompensationYears is the statutory number of years income-based
// compensation is paid for: 20 years up to age 60, one year less for each
// year of age above 60, and 5 years from age 75 on.
func CompensationYears(age int) int {
	switch {
	case age <= reductionStart:
		return baseYears
	case age >= reductionFloor:
		return floorYears
	default:
		return baseYears - (age - reductionStart)
	}
}

// DependentYears is how long a dependant is supported: until 18 for a
// minor, otherwise the same schedule as CompensationYears.
func DependentYears(age int) int {
	if age < ageOfMajority {
		return ageOfMajority - age
	}
	return CompensationYears(age)
}
