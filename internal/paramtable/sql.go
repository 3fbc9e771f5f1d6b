package paramtable

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"compensation-engine/internal/model"
)

// DefaultQuery selects the columns SQLSource expects, in order.
const DefaultQuery = `
	SELECT year, region, residency,
	       disposable_income, consumption_expenditure, average_wage, funeral_base,
	       daily_meal_subsidy, daily_nursing_rate, daily_transport_rate,
	       daily_accommodation_rate, daily_nutrition_rate, source
	FROM parameter_tables
	ORDER BY year, region, residency`

// SQLSource reads rows from a database. Driver is "sqlite" for a local
// file database or "pgx" for PostgreSQL.
type SQLSource struct {
	Driver string
	DSN    string
	Query  string
}

func (s SQLSource) Name() string { return "sql:" + s.Driver }

func (s SQLSource) Rows(ctx context.Context) ([]Row, error) {
	db, err := sql.Open(s.Driver, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Driver, err)
	}
	defer db.Close()

	query := s.Query
	if query == "" {
		query = DefaultQuery
	}
	rs, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query parameter tables: %w", err)
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var (
			row       Row
			residency string
			meal      decimal.NullDecimal
			nursing   decimal.NullDecimal
			transport decimal.NullDecimal
			lodging   decimal.NullDecimal
			nutrition decimal.NullDecimal
			source    sql.NullString
		)
		err := rs.Scan(
			&row.Year, &row.Region, &residency,
			&row.DisposableIncome, &row.ConsumptionExpenditure, &row.AverageWage, &row.FuneralBase,
			&meal, &nursing, &transport, &lodging, &nutrition, &source,
		)
		if err != nil {
			return nil, fmt.Errorf("scan parameter table row: %w", err)
		}
		row.Residency = model.Residency(residency)
		row.DailyMealSubsidy = meal.Decimal
		row.DailyNursingRate = nursing.Decimal
		row.DailyTransportRate = transport.Decimal
		row.DailyAccommodationRate = lodging.Decimal
		row.DailyNutritionRate = nutrition.Decimal
		row.Source = source.String
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
