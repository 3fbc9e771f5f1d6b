package paramtable

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
)

// Key identifies exactly one parameter table row.
type Key struct {
	Year      int
	Region    string
	Residency model.Residency
}

func (k Key) String() string {
	return strconv.Itoa(k.Year) + "/" + k.Region + "/" + string(k.Residency)
}

// Row holds the statistical constants for one (year, region, residency).
// Daily rates are optional; a zero rate means the table does not provide
// one and the case must evidence it.
type Row struct {
	Year      int             `yaml:"year" json:"year"`
	Region    string          `yaml:"region" json:"region"`
	Residency model.Residency `yaml:"residency" json:"residency"`

	DisposableIncome       decimal.Decimal `yaml:"disposable_income" json:"disposable_income"`
	ConsumptionExpenditure decimal.Decimal `yaml:"consumption_expenditure" json:"consumption_expenditure"`
	AverageWage            decimal.Decimal `yaml:"average_wage" json:"average_wage"`
	FuneralBase            decimal.Decimal `yaml:"funeral_base" json:"funeral_base"`

	DailyMealSubsidy       decimal.Decimal `yaml:"daily_meal_subsidy" json:"daily_meal_subsidy"`
	DailyNursingRate       decimal.Decimal `yaml:"daily_nursing_rate" json:"daily_nursing_rate"`
	DailyTransportRate     decimal.Decimal `yaml:"daily_transport_rate" json:"daily_transport_rate"`
	DailyAccommodationRate decimal.Decimal `yaml:"daily_accommodation_rate" json:"daily_accommodation_rate"`
	DailyNutritionRate     decimal.Decimal `yaml:"daily_nutrition_rate" json:"daily_nutrition_rate"`

	IndustryWages map[string]decimal.Decimal `yaml:"industry_wages,omitempty" json:"industry_wages,omitempty"`

	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	// Version is assigned when the row enters a snapshot.
	Version string `yaml:"-" json:"-"`
}

func (r *Row) Key() Key {
	return Key{Year: r.Year, Region: r.Region, Residency: r.Residency}
}

// IndustryWage returns the annual wage for industry, if the row has one.
func (r *Row) IndustryWage(industry string) (decimal.Decimal, bool) {
	w, ok := r.IndustryWages[industry]
	if !ok || !w.IsPositive() {
		return decimal.Zero, false
	}
	return w, true
}

func (r *Row) normalize() {
	r.Region = strings.ToLower(strings.TrimSpace(r.Region))
	r.Residency = model.Residency(strings.ToLower(strings.TrimSpace(string(r.Residency))))
	r.Source = strings.TrimSpace(r.Source)
}

// validate checks required-key presence only; provenance of the figures
// is the feed's responsibility.
func (r *Row) validate() error {
	var missing []string
	if r.Year <= 0 {
		missing = append(missing, "year")
	}
	if r.Region == "" {
		missing = append(missing, "region")
	}
	if !r.Residency.Valid() {
		missing = append(missing, "residency")
	}
	required := []struct {
		name string
		v    decimal.Decimal
	}{
		{"disposable_income", r.DisposableIncome},
		{"consumption_expenditure", r.ConsumptionExpenditure},
		{"average_wage", r.AverageWage},
		{"funeral_base", r.FuneralBase},
	}
	for _, f := range required {
		if !f.v.IsPositive() {
			missing = append(missing, f.name)
		}
	}
	optional := []struct {
		name string
		v    decimal.Decimal
	}{
		{"daily_meal_subsidy", r.DailyMealSubsidy},
		{"daily_nursing_rate", r.DailyNursingRate},
		{"daily_transport_rate", r.DailyTransportRate},
		{"daily_accommodation_rate", r.DailyAccommodationRate},
		{"daily_nutrition_rate", r.DailyNutritionRate},
	}
	for _, f := range optional {
		if f.v.IsNegative() {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("row %s: missing or invalid fields: %s", r.Key(), strings.Join(missing, ", "))
	}
	return nil
}

// fingerprint hashes the row's content so the version only changes when
// the figures do.
func (r *Row) fingerprint() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:6]), nil
}
