package model

import (
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryMedical                Category = "medical"
	CategoryFollowUpTreatment      Category = "follow_up_treatment"
	CategoryLostIncome             Category = "lost_income"
	CategoryNursing                Category = "nursing"
	CategoryTransportation         Category = "transportation"
	CategoryAccommodation          Category = "accommodation"
	CategoryHospitalMeal           Category = "hospital_meal"
	CategoryNutrition              Category = "nutrition"
	CategoryDisabilityCompensation Category = "disability_compensation"
	CategoryDisabilityAppliance    Category = "disability_appliance"
	CategoryDependentsLiving       Category = "dependents_living"
	CategoryDeathCompensation      Category = "death_compensation"
	CategoryFuneral                Category = "funeral"
	CategoryMentalDistress         Category = "mental_distress"
)

// CanonicalOrder is the order in which line items are reported and
// rendered, regardless of the order calculators ran in.
var CanonicalOrder = []Category{
	CategoryMedical,
	CategoryFollowUpTreatment,
	CategoryLostIncome,
	CategoryNursing,
	CategoryTransportation,
	CategoryAccommodation,
	CategoryHospitalMeal,
	CategoryNutrition,
	CategoryDisabilityCompensation,
	CategoryDisabilityAppliance,
	CategoryDependentsLiving,
	CategoryDeathCompensation,
	CategoryFuneral,
	CategoryMentalDistress,
}

var categoryRank = func() map[Category]int {
	m := make(map[Category]int, len(CanonicalOrder))
	for i, c := range CanonicalOrder {
		m[c] = i
	}
	return m
}()

// Rank returns the canonical position of c, or -1 for unknown categories.
func (c Category) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return -1
}

var categoryLabels = map[Category]string{
	CategoryMedical:                "Medical expenses",
	CategoryFollowUpTreatment:      "Follow-up treatment",
	CategoryLostIncome:             "Lost income",
	CategoryNursing:                "Nursing care",
	CategoryTransportation:         "Transportation",
	CategoryAccommodation:          "Accommodation",
	CategoryHospitalMeal:           "Hospital meal subsidy",
	CategoryNutrition:              "Nutrition",
	CategoryDisabilityCompensation: "Disability compensation",
	CategoryDisabilityAppliance:    "Disability appliance",
	CategoryDependentsLiving:       "Dependants' living expenses",
	CategoryDeathCompensation:      "Death compensation",
	CategoryFuneral:                "Funeral expenses",
	CategoryMentalDistress:         "Mental distress solatium",
}

func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Group is the sub-total bucket a category is reported under.
type Group string

const (
	GroupMedical       Group = "medical"
	GroupIncomeAndCare Group = "income_and_care"
	GroupIncidental    Group = "incidental"
	GroupPermanentLoss Group = "permanent_loss"
	GroupSolatium      Group = "solatium"
)

// GroupOrder is the reporting order of sub-totals.
var GroupOrder = []Group{GroupMedical, GroupIncomeAndCare, GroupIncidental, GroupPermanentLoss, GroupSolatium}

func (c Category) Group() Group {
	switch c {
	case CategoryMedical, CategoryFollowUpTreatment, CategoryHospitalMeal, CategoryNutrition:
		return GroupMedical
	case CategoryLostIncome, CategoryNursing:
		return GroupIncomeAndCare
	case CategoryTransportation, CategoryAccommodation:
		return GroupIncidental
	case CategoryMentalDistress:
		return GroupSolatium
	default:
		return GroupPermanentLoss
	}
}

var groupLabels = map[Group]string{
	GroupMedical:       "Treatment costs",
	GroupIncomeAndCare: "Earnings and care",
	GroupIncidental:    "Travel and lodging",
	GroupPermanentLoss: "Permanent loss",
	GroupSolatium:      "Non-pecuniary",
}

func (g Group) Label() string {
	if l, ok := groupLabels[g]; ok {
		return l
	}
	return string(g)
}

// Factor records one value a formula consumed, for auditability.
type Factor struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit,omitempty"`
}

// LineItem is one computed compensation component. Amount keeps full
// precision; rounding happens only at aggregation.
type LineItem struct {
	Category  Category        `json:"category"`
	Amount    decimal.Decimal `json:"-"`
	FormulaID string          `json:"formula_id"`
	Factors   []Factor        `json:"factors,omitempty"`
}

func (li LineItem) Label() string {
	return li.Category.Label()
}

// DisplayAmount is the amount at the fixed 2-decimal reporting precision.
func (li LineItem) DisplayAmount() decimal.Decimal {
	return li.Amount.Round(2)
}

type lineItemJSON struct {
	Category    Category `json:"category"`
	Label       string   `json:"label"`
	Amount      string   `json:"amount"`
	ExactAmount string   `json:"exact_amount"`
	FormulaID   string   `json:"formula_id"`
	Factors     []Factor `json:"factors,omitempty"`
}

func (li LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{
		Category:    li.Category,
		Label:       li.Label(),
		Amount:      li.Amount.StringFixed(2),
		ExactAmount: li.Amount.String(),
		FormulaID:   li.FormulaID,
		Factors:     li.Factors,
	})
}

func (li *LineItem) UnmarshalJSON(data []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.ExactAmount)
	if err != nil {
		return err
	}
	*li = LineItem{
		Category:  raw.Category,
		Amount:    amount,
		FormulaID: raw.FormulaID,
		Factors:   raw.Factors,
	}
	return nil
}
