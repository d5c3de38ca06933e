package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InitSchema creates every table the service reads or writes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		`
		CREATE TABLE IF NOT EXISTS drivers (
			tenant_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			hours_driven DOUBLE PRECISION NOT NULL DEFAULT 0,
			on_duty_time DOUBLE PRECISION NOT NULL DEFAULT 0,
			hours_since_break DOUBLE PRECISION NOT NULL DEFAULT 0,
			cycle_hours_used DOUBLE PRECISION NOT NULL DEFAULT 0,
			split_first_period_hours DOUBLE PRECISION,
			PRIMARY KEY (tenant_id, id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS vehicles (
			tenant_id TEXT NOT NULL,
			id TEXT NOT NULL,
			unit_name TEXT NOT NULL DEFAULT '',
			current_gallons DOUBLE PRECISION NOT NULL,
			capacity_gallons DOUBLE PRECISION NOT NULL,
			miles_per_gallon DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (tenant_id, id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS loads (
			tenant_id TEXT NOT NULL,
			id TEXT NOT NULL,
			PRIMARY KEY (tenant_id, id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS load_stops (
			tenant_id TEXT NOT NULL,
			load_id TEXT NOT NULL,
			stop_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			action TEXT NOT NULL,
			dock_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
			window_earliest TIMESTAMPTZ,
			window_latest TIMESTAMPTZ,
			customer_reference TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (tenant_id, stop_id),
			FOREIGN KEY (tenant_id, load_id) REFERENCES loads (tenant_id, id) ON DELETE CASCADE
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS fuel_stations (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			price_per_gallon DOUBLE PRECISION NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS rest_areas (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			spaces INTEGER NOT NULL DEFAULT 0
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS route_plans (
			id UUID PRIMARY KEY,
			display_id TEXT NOT NULL UNIQUE,
			tenant_id TEXT NOT NULL,
			driver_id TEXT NOT NULL,
			vehicle_id TEXT NOT NULL,
			status TEXT NOT NULL,
			priority TEXT NOT NULL,
			departure_time TIMESTAMPTZ NOT NULL,
			arrival_time TIMESTAMPTZ NOT NULL,
			is_feasible BOOLEAN NOT NULL,
			load_ids JSONB NOT NULL,
			stop_sequence JSONB NOT NULL,
			totals JSONB NOT NULL,
			compliance JSONB NOT NULL,
			issues JSONB NOT NULL,
			warnings JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS route_segments (
			plan_id UUID NOT NULL REFERENCES route_plans (id) ON DELETE CASCADE,
			sequence_order INTEGER NOT NULL,
			segment_type TEXT NOT NULL,
			from_place JSONB NOT NULL,
			to_place JSONB NOT NULL,
			detail JSONB NOT NULL,
			hos_after JSONB NOT NULL,
			fuel_after_gallons DOUBLE PRECISION NOT NULL,
			estimated_arrival TIMESTAMPTZ NOT NULL,
			estimated_departure TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (plan_id, sequence_order)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS distance_cache (
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			distance_miles DOUBLE PRECISION NOT NULL,
			drive_time_hours DOUBLE PRECISION NOT NULL,
			cached_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (origin, destination)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS geocode_cache (
			address TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lon DOUBLE PRECISION NOT NULL,
			resolved_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_stations_lat_lon ON fuel_stations (lat, lon);`,
		`CREATE INDEX IF NOT EXISTS idx_rest_areas_lat_lon ON rest_areas (lat, lon);`,
		`CREATE INDEX IF NOT EXISTS idx_route_plans_tenant_driver ON route_plans (tenant_id, driver_id);`,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
