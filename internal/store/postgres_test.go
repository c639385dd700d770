package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestSanitizeColumn(t *testing.T) {
	tests := []struct {
		column, want string
	}{
		{"imo", "imo"},
		{"ship_name", "ship_name"},
		{"expiry_date", "expiry_date"},
		{"drop_table", "imo"},
		{"imo; DROP TABLE co2emission_reduced", "imo"},
		{"", "imo"},
	}
	for _, tt := range tests {
		if got := sanitizeColumn(tt.column, "imo"); got != tt.want {
			t.Errorf("sanitizeColumn(%q) = %q, want %q", tt.column, got, tt.want)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505"}
	if !isUniqueViolation(unique) {
		t.Error("expected 23505 to be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert emission: %w", unique)) {
		t.Error("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Error("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Error("plain error is not a unique violation")
	}
	if isUniqueViolation(nil) {
		t.Error("nil is not a unique violation")
	}
}

// TestChartQueriesTolerateNullGroups inserts a fact row with no ship and no
// verifier, which the LEFT JOINs surface as a NULL group key with NULL
// aggregates. It needs EMISSIONS_TEST_DATABASE_URL and is skipped otherwise.
func TestChartQueriesTolerateNullGroups(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("EMISSIONS_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("EMISSIONS_TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := ApplyMigrations(ctx, db, migrationsDir()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	var factID int64
	err = db.QueryRowContext(ctx, `
		INSERT INTO fact (ship, verifier) VALUES (NULL, NULL) RETURNING id
	`).Scan(&factID)
	if err != nil {
		t.Fatalf("insert orphan fact: %v", err)
	}
	defer db.ExecContext(ctx, `DELETE FROM fact WHERE id = $1`, factID)

	s := NewPostgresStore(db)

	averages, err := s.CountryAverages(ctx)
	if err != nil {
		t.Fatalf("country averages with NULL group: %v", err)
	}
	if len(averages) == 0 {
		t.Error("expected at least the NULL-country group")
	}

	totals, err := s.ShipTypeTotals(ctx)
	if err != nil {
		t.Fatalf("ship type totals with NULL group: %v", err)
	}
	if len(totals) == 0 {
		t.Error("expected at least the NULL-ship-type group")
	}
}
