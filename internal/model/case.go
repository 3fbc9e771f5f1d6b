package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Residency string

const (
	ResidencyUrban Residency = "urban"
	ResidencyRural Residency = "rural"
)

func (r Residency) Valid() bool {
	return r == ResidencyUrban || r == ResidencyRural
}

type InjuryKind string

const (
	InjuryNone       InjuryKind = "none"
	InjuryDisability InjuryKind = "disability"
	InjuryFatal      InjuryKind = "fatal"
)

// Injury is the tagged variant describing the outcome of the incident.
// Grades is populated only for InjuryDisability and is sorted most severe
// first (grade 1 is the most severe).
type Injury struct {
	Kind   InjuryKind `json:"kind"`
	Grades []int      `json:"grades,omitempty"`
}

type IncomeKind string

const (
	IncomeFixedMonthly IncomeKind = "fixed_monthly"
	IncomeDailyAverage IncomeKind = "daily_average"
	IncomeIndustry     IncomeKind = "industry"
)

// IncomeEvidence is the claimant's pre-incident income as evidenced.
// Amount is monthly for IncomeFixedMonthly and daily for IncomeDailyAverage;
// IncomeIndustry carries only the industry name.
type IncomeEvidence struct {
	Kind     IncomeKind      `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
	Industry string          `json:"industry,omitempty"`
}

type NursingCare struct {
	Days        int              `json:"days"`
	Caregivers  int              `json:"caregivers"`
	DailyIncome *decimal.Decimal `json:"daily_income,omitempty"`
	CareLevel   decimal.Decimal  `json:"care_level"`
}

// DailyExpense is a certified day count with an optional evidenced rate.
// A nil Rate means the parameter table rate applies.
type DailyExpense struct {
	Days int              `json:"days"`
	Rate *decimal.Decimal `json:"rate,omitempty"`
}

type Dependent struct {
	Age          int `json:"age"`
	SupportCount int `json:"support_count"`
}

// Evidenced holds lump sums proven by receipts or awarded directly.
type Evidenced struct {
	Medical             decimal.Decimal `json:"medical"`
	FollowUpTreatment   decimal.Decimal `json:"follow_up_treatment"`
	DisabilityAppliance decimal.Decimal `json:"disability_appliance"`
	MentalDistress      decimal.Decimal `json:"mental_distress"`
}

// Case is a validated set of facts for one claimant. Construct it through
// CaseRequest.ToCase so the invariants hold.
type Case struct {
	VictimName     string          `json:"victim_name,omitempty"`
	Age            int             `json:"age"`
	Residency      Residency       `json:"residency"`
	Region         string          `json:"region"`
	IncidentDate   time.Time       `json:"incident_date"`
	LiabilityRatio decimal.Decimal `json:"liability_ratio"`
	Injury         Injury          `json:"injury"`

	Income         *IncomeEvidence `json:"income,omitempty"`
	IncapacityDays int             `json:"incapacity_days"`
	Nursing        *NursingCare    `json:"nursing,omitempty"`
	HospitalDays   int             `json:"hospital_days"`
	Transportation DailyExpense    `json:"transportation"`
	Accommodation  DailyExpense    `json:"accommodation"`
	Nutrition      DailyExpense    `json:"nutrition"`
	Dependents     []Dependent     `json:"dependents,omitempty"`
	Evidenced      Evidenced       `json:"evidenced"`

	// HospitalMealRate overrides the table's daily meal subsidy.
	HospitalMealRate *decimal.Decimal `json:"hospital_meal_rate,omitempty"`
}

func (c *Case) TableYear() int {
	return c.IncidentDate.Year()
}
