package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

var emissionColumns = strings.Join(Columns, ", ")

func (s *PostgresStore) CountEmissions(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM co2emission_reduced`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count emissions: %w", err)
	}
	return count, nil
}

// ListEmissions returns one page of records. orderBy must be one of Columns;
// anything else is replaced by imo before interpolation.
func (s *PostgresStore) ListEmissions(ctx context.Context, orderBy string, limit, offset int) ([]Emission, error) {
	orderBy = sanitizeColumn(orderBy, "imo")
	query := fmt.Sprintf(`
		SELECT %s
		FROM co2emission_reduced
		ORDER BY %s
		OFFSET $1
		LIMIT $2
	`, emissionColumns, orderBy)

	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list emissions: %w", err)
	}
	defer rows.Close()

	items := make([]Emission, 0)
	for rows.Next() {
		item, err := scanEmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emissions: %w", err)
	}
	return items, nil
}

// AllEmissions returns every record ordered by IMO, for report export.
func (s *PostgresStore) AllEmissions(ctx context.Context) ([]Emission, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM co2emission_reduced
		ORDER BY imo
	`, emissionColumns))
	if err != nil {
		return nil, fmt.Errorf("all emissions: %w", err)
	}
	defer rows.Close()

	items := make([]Emission, 0)
	for rows.Next() {
		item, err := scanEmission(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emissions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetEmission(ctx context.Context, imo int64) (Emission, error) {
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM co2emission_reduced
		WHERE imo = $1
	`, emissionColumns), imo)

	item, err := scanEmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Emission{}, ErrNotFound
	}
	if err != nil {
		return Emission{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertEmission(ctx context.Context, item Emission) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO co2emission_reduced (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, emissionColumns),
		item.IMO, item.ShipName, item.TechnicalEfficiency, item.ShipType, item.IssueDate, item.ExpiryDate)
	if isUniqueViolation(err) {
		return ErrDuplicateIMO
	}
	if err != nil {
		return fmt.Errorf("insert emission: %w", err)
	}
	return nil
}

// UpdateEmission rewrites every column except the key. The IMO itself is
// immutable after insert.
func (s *PostgresStore) UpdateEmission(ctx context.Context, imo int64, item Emission) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE co2emission_reduced
		SET ship_name = $2,
			technical_efficiency_number = $3,
			ship_type = $4,
			issue_date = $5,
			expiry_date = $6
		WHERE imo = $1
	`, imo, item.ShipName, item.TechnicalEfficiency, item.ShipType, item.IssueDate, item.ExpiryDate)
	if err != nil {
		return fmt.Errorf("update emission: %w", err)
	}
	return nil
}

// DeleteEmission removes the record if present. Deleting an unknown IMO is
// not an error.
func (s *PostgresStore) DeleteEmission(ctx context.Context, imo int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM co2emission_reduced WHERE imo = $1`, imo)
	if err != nil {
		return fmt.Errorf("delete emission: %w", err)
	}
	return nil
}

// DistinctValues feeds the choice cache. column must be one of Columns.
func (s *PostgresStore) DistinctValues(ctx context.Context, column string) ([]string, error) {
	if !validColumn(column) {
		return nil, fmt.Errorf("distinct values: unknown column %q", column)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT DISTINCT %s
		FROM co2emission_reduced
		ORDER BY %s
	`, column, column))
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value sql.NullString
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		if value.Valid {
			values = append(values, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct %s: %w", column, err)
	}
	return values, nil
}

func (s *PostgresStore) InsertGreeting(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO greeting ("when") VALUES (NOW())`); err != nil {
		return fmt.Errorf("insert greeting: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListGreetings(ctx context.Context) ([]Greeting, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT "when" FROM greeting ORDER BY "when"`)
	if err != nil {
		return nil, fmt.Errorf("list greetings: %w", err)
	}
	defer rows.Close()

	items := make([]Greeting, 0)
	for rows.Next() {
		var item Greeting
		if err := rows.Scan(&item.When); err != nil {
			return nil, fmt.Errorf("scan greeting: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate greetings: %w", err)
	}
	return items, nil
}

const aggregationBody = `
	FROM fact f
	JOIN ships s ON f.ship = s.id
	JOIN date d ON f.issue_date = d.id
	JOIN verifiers v ON f.verifier = v.id
	GROUP BY ROLLUP (v.country, d.month, s.ship_type)
`

// CountAggregation counts the rollup rows the report paginates over,
// subtotal rows included.
func (s *PostgresStore) CountAggregation(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM (SELECT 1`+aggregationBody+`) agg`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count aggregation: %w", err)
	}
	return count, nil
}

// Aggregation returns one page of the rollup report. orderBy must be
// country, month or ship_type; anything else falls back to country.
func (s *PostgresStore) Aggregation(ctx context.Context, orderBy string, limit, offset int) ([]AggregateRow, error) {
	switch orderBy {
	case "country", "month", "ship_type":
	default:
		orderBy = "country"
	}

	query := `
		SELECT v.country, d.month, s.ship_type,
			COUNT(f.ship) AS count,
			MAX(f.eedi) AS max_eedi, MIN(f.eedi) AS min_eedi,
			MAX(f.eiv) AS max_eiv, MIN(f.eiv) AS min_eiv,
			SUM(f.total_co2_emissions) AS sum_co2,
			SUM(f.total_fuel_consumption) AS sum_fuel
	` + aggregationBody + fmt.Sprintf(`
		ORDER BY %s
		OFFSET $1
		LIMIT $2
	`, orderBy)

	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("aggregation: %w", err)
	}
	defer rows.Close()

	items := make([]AggregateRow, 0)
	for rows.Next() {
		var item AggregateRow
		if err := rows.Scan(
			&item.Country, &item.Month, &item.ShipType,
			&item.Count,
			&item.MaxEEDI, &item.MinEEDI,
			&item.MaxEIV, &item.MinEIV,
			&item.SumCO2, &item.SumFuel,
		); err != nil {
			return nil, fmt.Errorf("scan aggregation row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregation: %w", err)
	}
	return items, nil
}

// CountryAverages backs the first visual chart: average time at sea and
// average CO2 emissions per verifier country.
func (s *PostgresStore) CountryAverages(ctx context.Context) ([]CountryAverage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.country,
			AVG(f.totol_time_spent_at_sea) AS avg_time_spent,
			AVG(f.total_co2_emissions) AS avg_co2_emissions
		FROM fact f
		LEFT JOIN ships s ON f.ship = s.id
		LEFT JOIN verifiers v ON f.verifier = v.id
		GROUP BY v.country
		ORDER BY v.country
	`)
	if err != nil {
		return nil, fmt.Errorf("country averages: %w", err)
	}
	defer rows.Close()

	items := make([]CountryAverage, 0)
	for rows.Next() {
		// The LEFT JOIN can emit a NULL country, and the aggregates are
		// NULL when every joined value is.
		var country sql.NullString
		var avgTime, avgCO2 sql.NullFloat64
		if err := rows.Scan(&country, &avgTime, &avgCO2); err != nil {
			return nil, fmt.Errorf("scan country average: %w", err)
		}
		items = append(items, CountryAverage{
			Country:      country.String,
			AvgTimeAtSea: avgTime.Float64,
			AvgCO2:       avgCO2.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate country averages: %w", err)
	}
	return items, nil
}

// ShipTypeTotals backs the second visual chart: CO2 totals per ship type,
// largest first.
func (s *PostgresStore) ShipTypeTotals(ctx context.Context) ([]ShipTypeTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.ship_type, SUM(f.total_co2_emissions)
		FROM fact f
		LEFT JOIN ships s ON f.ship = s.id
		GROUP BY s.ship_type
		ORDER BY SUM(f.total_co2_emissions) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("ship type totals: %w", err)
	}
	defer rows.Close()

	items := make([]ShipTypeTotal, 0)
	for rows.Next() {
		var shipType sql.NullString
		var sumCO2 sql.NullFloat64
		if err := rows.Scan(&shipType, &sumCO2); err != nil {
			return nil, fmt.Errorf("scan ship type total: %w", err)
		}
		items = append(items, ShipTypeTotal{
			ShipType: shipType.String,
			SumCO2:   sumCO2.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ship type totals: %w", err)
	}
	return items, nil
}

// CountryEIVRange backs the radar chart. Portugal is excluded because its
// outlier EIV values flatten every other country's spoke.
func (s *PostgresStore) CountryEIVRange(ctx context.Context) ([]CountryEIVRange, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.country, MAX(f.eiv) AS max_eiv, MIN(f.eiv) AS min_eiv
		FROM fact f
		JOIN verifiers v ON f.verifier = v.id
		WHERE v.country <> 'Portugal'
		GROUP BY v.country
	`)
	if err != nil {
		return nil, fmt.Errorf("country eiv range: %w", err)
	}
	defer rows.Close()

	items := make([]CountryEIVRange, 0)
	for rows.Next() {
		var item CountryEIVRange
		if err := rows.Scan(&item.Country, &item.MaxEIV, &item.MinEIV); err != nil {
			return nil, fmt.Errorf("scan country eiv range: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate country eiv range: %w", err)
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEmission(row scanner) (Emission, error) {
	var item Emission
	err := row.Scan(
		&item.IMO,
		&item.ShipName,
		&item.TechnicalEfficiency,
		&item.ShipType,
		&item.IssueDate,
		&item.ExpiryDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Emission{}, err
	}
	if err != nil {
		return Emission{}, fmt.Errorf("scan emission: %w", err)
	}
	return item, nil
}

func validColumn(column string) bool {
	for _, c := range Columns {
		if c == column {
			return true
		}
	}
	return false
}

func sanitizeColumn(column, fallback string) string {
	if validColumn(column) {
		return column
	}
	return fallback
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
