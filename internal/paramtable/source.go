package paramtable

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"compensation-engine/internal/model"
)

// Source supplies parameter table rows in their tabular shape.
type Source interface {
	Name() string
	Rows(ctx context.Context) ([]Row, error)
}

// FileSource is a Source backed by a local file that can be watched for
// reloads.
type FileSource interface {
	Source
	Path() string
}

// document is the YAML/JSON shape of a table feed.
type document struct {
	Source string `yaml:"source" json:"source"`
	Rows   []Row  `yaml:"rows" json:"rows"`
}

func (d *document) rows() []Row {
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		if r.Source == "" {
			r.Source = d.Source
		}
		rows[i] = r
	}
	return rows
}

//go:embed data/*.yaml
var embedded embed.FS

type embeddedSource struct{}

// Embedded returns the dataset compiled into the binary.
func Embedded() Source { return embeddedSource{} }

func (embeddedSource) Name() string { return "embedded" }

func (embeddedSource) Rows(_ context.Context) ([]Row, error) {
	entries, err := embedded.ReadDir("data")
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, e := range entries {
		data, err := embedded.ReadFile(path.Join("data", e.Name()))
		if err != nil {
			return nil, err
		}
		var doc document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		rows = append(rows, doc.rows()...)
	}
	return rows, nil
}

// YAMLFile reads a YAML document with a top-level "rows" list.
type YAMLFile struct {
	File string
}

func (s YAMLFile) Name() string { return "yaml:" + s.File }
func (s YAMLFile) Path() string { return s.File }

func (s YAMLFile) Rows(_ context.Context) ([]Row, error) {
	data, err := os.ReadFile(s.File)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.File, err)
	}
	return doc.rows(), nil
}

// CSVFile reads a headed CSV file, one row per line. Columns are matched
// by header name; industry wages are not expressible in this shape.
type CSVFile struct {
	File string
}

func (s CSVFile) Name() string { return "csv:" + s.File }
func (s CSVFile) Path() string { return s.File }

var csvRequired = []string{
	"year", "region", "residency",
	"disposable_income", "consumption_expenditure", "average_wage", "funeral_base",
}

func (s CSVFile) Rows(_ context.Context) ([]Row, error) {
	data, err := os.ReadFile(s.File)
	if err != nil {
		return nil, err
	}
	return parseCSV(bytes.NewReader(data))
}

func parseCSV(in io.Reader) ([]Row, error) {
	r := csv.NewReader(in)
	r.TrimLeadingSpace = true
	r.Comment = '#'

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty table feed")
		}
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range csvRequired {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []Row
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		var perr error
		num := func(name string) decimal.Decimal {
			v := get(name)
			if v == "" {
				return decimal.Zero
			}
			d, err := decimal.NewFromString(v)
			if err != nil && perr == nil {
				perr = fmt.Errorf("line %d: column %s: %w", line, name, err)
			}
			return d
		}

		year, err := strconv.Atoi(get("year"))
		if err != nil {
			return nil, fmt.Errorf("line %d: column year: %w", line, err)
		}
		row := Row{
			Year:                   year,
			Region:                 get("region"),
			Residency:              model.Residency(get("residency")),
			DisposableIncome:       num("disposable_income"),
			ConsumptionExpenditure: num("consumption_expenditure"),
			AverageWage:            num("average_wage"),
			FuneralBase:            num("funeral_base"),
			DailyMealSubsidy:       num("daily_meal_subsidy"),
			DailyNursingRate:       num("daily_nursing_rate"),
			DailyTransportRate:     num("daily_transport_rate"),
			DailyAccommodationRate: num("daily_accommodation_rate"),
			DailyNutritionRate:     num("daily_nutrition_rate"),
			Source:                 get("source"),
		}
		if perr != nil {
			return nil, perr
		}
		rows = append(rows, row)
	}
	return rows, nil
}
