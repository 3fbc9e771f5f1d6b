package model

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CaseRequest is the input record as received from a caller. Pointers mark
// fields whose absence must be distinguished from a zero value.
type CaseRequest struct {
	VictimName     string           `json:"victim_name"`
	Age            *int             `json:"age"`
	Residency      string           `json:"residency"`
	Region         string           `json:"region"`
	IncidentDate   string           `json:"incident_date"`
	LiabilityRatio *decimal.Decimal `json:"liability_ratio"`

	Injury           string `json:"injury"`
	DisabilityGrades []int  `json:"disability_grades,omitempty"`

	Income         *IncomeRequest  `json:"income,omitempty"`
	IncapacityDays int             `json:"incapacity_days"`
	Nursing        *NursingRequest `json:"nursing,omitempty"`
	HospitalDays   int             `json:"hospital_days"`
	Transportation DailyExpense    `json:"transportation"`
	Accommodation  DailyExpense    `json:"accommodation"`
	Nutrition      DailyExpense    `json:"nutrition"`

	HospitalMealRate *decimal.Decimal `json:"hospital_meal_rate,omitempty"`

	Dependents []DependentRequest `json:"dependents,omitempty"`

	MedicalExpenses     *decimal.Decimal `json:"medical_expenses,omitempty"`
	FollowUpTreatment   *decimal.Decimal `json:"follow_up_treatment,omitempty"`
	DisabilityAppliance *decimal.Decimal `json:"disability_appliance,omitempty"`
	MentalDistress      *decimal.Decimal `json:"mental_distress,omitempty"`
}

type IncomeRequest struct {
	Kind          string           `json:"kind"`
	MonthlyIncome *decimal.Decimal `json:"monthly_income,omitempty"`
	DailyIncome   *decimal.Decimal `json:"daily_income,omitempty"`
	Industry      string           `json:"industry,omitempty"`
}

type NursingRequest struct {
	Days        int              `json:"days"`
	Caregivers  *int             `json:"caregivers,omitempty"`
	DailyIncome *decimal.Decimal `json:"daily_income,omitempty"`
	CareLevel   *decimal.Decimal `json:"care_level,omitempty"`
}

type DependentRequest struct {
	Age          *int `json:"age"`
	SupportCount *int `json:"support_count,omitempty"`
}

// ToCase validates the record and builds a Case. Every violated field is
// reported in a single *ValidationError.
func (r *CaseRequest) ToCase(now time.Time) (*Case, error) {
	verr := &ValidationError{}
	c := &Case{
		VictimName:     strings.TrimSpace(r.VictimName),
		Region:         strings.ToLower(strings.TrimSpace(r.Region)),
		Residency:      Residency(strings.ToLower(strings.TrimSpace(r.Residency))),
		IncapacityDays: r.IncapacityDays,
		HospitalDays:   r.HospitalDays,
		Transportation: r.Transportation,
		Accommodation:  r.Accommodation,
		Nutrition:      r.Nutrition,

		HospitalMealRate: r.HospitalMealRate,
	}

	switch {
	case r.Age == nil:
		verr.add("age", "REQUIRED", "age is required")
	case *r.Age < 0:
		verr.add("age", "OUT_OF_RANGE", "age must be non-negative, got %d", *r.Age)
	default:
		c.Age = *r.Age
	}

	if !c.Residency.Valid() {
		verr.add("residency", "INVALID_RESIDENCY", "residency must be %q or %q", ResidencyUrban, ResidencyRural)
	}
	if c.Region == "" {
		verr.add("region", "REQUIRED", "region is required")
	}

	if d, ok := fastParseDate(r.IncidentDate); !ok {
		verr.add("incident_date", "INVALID_DATE", "incident_date must be YYYY-MM-DD")
	} else if d.After(now) {
		verr.add("incident_date", "FUTURE_DATE", "incident_date is in the future")
	} else {
		c.IncidentDate = d
	}

	switch {
	case r.LiabilityRatio == nil:
		verr.add("liability_ratio", "REQUIRED", "liability_ratio is required")
	case r.LiabilityRatio.IsNegative() || r.LiabilityRatio.GreaterThan(decimal.NewFromInt(1)):
		verr.add("liability_ratio", "OUT_OF_RANGE", "liability_ratio must be within [0,1], got %s", r.LiabilityRatio)
	default:
		c.LiabilityRatio = *r.LiabilityRatio
	}

	r.validateInjury(c, verr)
	r.validateIncome(c, verr)
	r.validateNursing(c, verr)

	nonNegativeDays(verr, "incapacity_days", r.IncapacityDays)
	nonNegativeDays(verr, "hospital_days", r.HospitalDays)
	validateDaily(verr, "transportation", r.Transportation)
	validateDaily(verr, "accommodation", r.Accommodation)
	validateDaily(verr, "nutrition", r.Nutrition)
	if r.HospitalMealRate != nil && r.HospitalMealRate.IsNegative() {
		verr.add("hospital_meal_rate", "OUT_OF_RANGE", "rate must be non-negative, got %s", r.HospitalMealRate)
	}

	r.validateDependents(c, verr)

	c.Evidenced.Medical = evidencedAmount(verr, "medical_expenses", r.MedicalExpenses)
	c.Evidenced.FollowUpTreatment = evidencedAmount(verr, "follow_up_treatment", r.FollowUpTreatment)
	c.Evidenced.DisabilityAppliance = evidencedAmount(verr, "disability_appliance", r.DisabilityAppliance)
	c.Evidenced.MentalDistress = evidencedAmount(verr, "mental_distress", r.MentalDistress)

	if len(verr.Violations) > 0 {
		return nil, verr
	}
	return c, nil
}

func (r *CaseRequest) validateInjury(c *Case, verr *ValidationError) {
	kind := InjuryKind(strings.ToLower(strings.TrimSpace(r.Injury)))
	if kind == "" {
		kind = InjuryNone
		if len(r.DisabilityGrades) > 0 {
			kind = InjuryDisability
		}
	}

	switch kind {
	case InjuryNone, InjuryFatal:
		if len(r.DisabilityGrades) > 0 {
			verr.add("disability_grades", "UNEXPECTED_GRADE", "disability grades are only allowed for injury %q", InjuryDisability)
		}
	case InjuryDisability:
		if len(r.DisabilityGrades) == 0 {
			verr.add("disability_grades", "REQUIRED", "at least one disability grade is required")
		}
	default:
		verr.add("injury", "INVALID_INJURY", "injury must be one of %q, %q, %q", InjuryNone, InjuryDisability, InjuryFatal)
		return
	}

	var grades []int
	for i, g := range r.DisabilityGrades {
		if g < 1 || g > 10 {
			verr.add("disability_grades["+strconv.Itoa(i)+"]", "OUT_OF_RANGE", "disability grade must be within [1,10], got %d", g)
			continue
		}
		grades = append(grades, g)
	}
	slices.Sort(grades)
	grades = slices.Compact(grades)

	c.Injury = Injury{Kind: kind}
	if kind == InjuryDisability {
		c.Injury.Grades = grades
	}
}

func (r *CaseRequest) validateIncome(c *Case, verr *ValidationError) {
	if r.Income == nil {
		return
	}
	in := r.Income
	switch IncomeKind(in.Kind) {
	case IncomeFixedMonthly:
		if amount, ok := incomeAmount(verr, "income.monthly_income", in.Kind, in.MonthlyIncome); ok {
			c.Income = &IncomeEvidence{Kind: IncomeFixedMonthly, Amount: amount}
		}
	case IncomeDailyAverage:
		if amount, ok := incomeAmount(verr, "income.daily_income", in.Kind, in.DailyIncome); ok {
			c.Income = &IncomeEvidence{Kind: IncomeDailyAverage, Amount: amount}
		}
	case IncomeIndustry:
		if strings.TrimSpace(in.Industry) == "" {
			verr.add("income.industry", "REQUIRED", "industry is required for kind %q", in.Kind)
			return
		}
		c.Income = &IncomeEvidence{Kind: IncomeIndustry, Industry: strings.TrimSpace(in.Industry)}
	default:
		verr.add("income.kind", "INVALID_INCOME_KIND", "income kind must be one of %q, %q, %q", IncomeFixedMonthly, IncomeDailyAverage, IncomeIndustry)
	}
}

// incomeAmount reports whether v is usable income evidence. A zero amount is
// accepted but leaves the case on the table's average wage.
func incomeAmount(verr *ValidationError, field, kind string, v *decimal.Decimal) (decimal.Decimal, bool) {
	switch {
	case v == nil:
		verr.add(field, "REQUIRED", "%s is required for kind %q", field, kind)
	case v.IsNegative():
		verr.add(field, "OUT_OF_RANGE", "income must be non-negative, got %s", v)
	case v.IsPositive():
		return *v, true
	}
	return decimal.Zero, false
}

func (r *CaseRequest) validateNursing(c *Case, verr *ValidationError) {
	if r.Nursing == nil {
		return
	}
	n := r.Nursing
	care := &NursingCare{Days: n.Days, Caregivers: 1, CareLevel: decimal.NewFromInt(1), DailyIncome: n.DailyIncome}
	nonNegativeDays(verr, "nursing.days", n.Days)
	if n.Caregivers != nil {
		if *n.Caregivers < 1 {
			verr.add("nursing.caregivers", "OUT_OF_RANGE", "caregivers must be at least 1, got %d", *n.Caregivers)
		}
		care.Caregivers = *n.Caregivers
	}
	if n.CareLevel != nil {
		if !n.CareLevel.IsPositive() || n.CareLevel.GreaterThan(decimal.NewFromInt(1)) {
			verr.add("nursing.care_level", "OUT_OF_RANGE", "care_level must be within (0,1], got %s", n.CareLevel)
		}
		care.CareLevel = *n.CareLevel
	}
	if n.DailyIncome != nil && !n.DailyIncome.IsPositive() {
		verr.add("nursing.daily_income", "OUT_OF_RANGE", "daily_income must be positive when given")
	}
	c.Nursing = care
}

func (r *CaseRequest) validateDependents(c *Case, verr *ValidationError) {
	if len(r.Dependents) == 0 {
		return
	}
	if c.Injury.Kind == InjuryNone {
		verr.add("dependents", "NOT_APPLICABLE", "dependants' living expenses require a disability or fatal injury")
	}
	for i, d := range r.Dependents {
		prefix := "dependents[" + strconv.Itoa(i) + "]"
		dep := Dependent{SupportCount: 1}
		if d.Age == nil {
			verr.add(prefix+".age", "REQUIRED", "dependant age is required")
		} else if *d.Age < 0 {
			verr.add(prefix+".age", "OUT_OF_RANGE", "dependant age must be non-negative, got %d", *d.Age)
		} else {
			dep.Age = *d.Age
		}
		if d.SupportCount != nil {
			if *d.SupportCount < 1 {
				verr.add(prefix+".support_count", "OUT_OF_RANGE", "support_count must be at least 1, got %d", *d.SupportCount)
			}
			dep.SupportCount = *d.SupportCount
		}
		c.Dependents = append(c.Dependents, dep)
	}
}

func nonNegativeDays(verr *ValidationError, field string, days int) {
	if days < 0 {
		verr.add(field, "OUT_OF_RANGE", "day count must be non-negative, got %d", days)
	}
}

func validateDaily(verr *ValidationError, field string, d DailyExpense) {
	nonNegativeDays(verr, field+".days", d.Days)
	if d.Rate != nil && d.Rate.IsNegative() {
		verr.add(field+".rate", "OUT_OF_RANGE", "rate must be non-negative, got %s", d.Rate)
	}
}

func evidencedAmount(verr *ValidationError, field string, v *decimal.Decimal) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	if v.IsNegative() {
		verr.add(field, "OUT_OF_RANGE", "amount must be non-negative, got %s", v)
		return decimal.Zero
	}
	return *v
}
