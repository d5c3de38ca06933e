package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"hos-route-service/internal/domain"
	"os"
	"strings"
)

// FleetSeed is the JSON fixture loaded by dbtool.
type FleetSeed struct {
	Drivers      []domain.Driver      `json:"drivers"`
	Vehicles     []domain.Vehicle     `json:"vehicles"`
	Loads        []domain.Load        `json:"loads"`
	FuelStations []domain.FuelStation `json:"fuel_stations"`
	RestAreas    []domain.RestArea    `json:"rest_areas"`
}

// ParseSeed decodes and validates a fleet fixture.
func ParseSeed(data []byte) (*FleetSeed, error) {
	var s FleetSeed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}

	for i, d := range s.Drivers {
		if strings.TrimSpace(d.ID) == "" || strings.TrimSpace(d.TenantID) == "" {
			return nil, fmt.Errorf("parse seed: driver at index %d: id and tenant_id are required", i)
		}
		if !d.CurrentLocation.Valid() {
			return nil, fmt.Errorf("parse seed: driver %q: invalid current_location", d.ID)
		}
	}
	for i, v := range s.Vehicles {
		if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.TenantID) == "" {
			return nil, fmt.Errorf("parse seed: vehicle at index %d: id and tenant_id are required", i)
		}
		if v.Fuel.CapacityGallons <= 0 || v.Fuel.MilesPerGallon <= 0 {
			return nil, fmt.Errorf("parse seed: vehicle %q: capacity and mpg must be positive", v.ID)
		}
		if v.Fuel.CurrentGallons < 0 || v.Fuel.CurrentGallons > v.Fuel.CapacityGallons {
			return nil, fmt.Errorf("parse seed: vehicle %q: current gallons out of range", v.ID)
		}
	}
	for i, l := range s.Loads {
		if strings.TrimSpace(l.ID) == "" || strings.TrimSpace(l.TenantID) == "" {
			return nil, fmt.Errorf("parse seed: load at index %d: id and tenant_id are required", i)
		}
		if len(l.Stops) == 0 {
			return nil, fmt.Errorf("parse seed: load %q has no stops", l.ID)
		}
		for _, st := range l.Stops {
			if st.ID == "" {
				return nil, fmt.Errorf("parse seed: load %q has a stop without id", l.ID)
			}
			switch st.Action {
			case domain.StopActionPickup, domain.StopActionDelivery, domain.StopActionOther:
			default:
				return nil, fmt.Errorf("parse seed: stop %q: unknown action %q", st.ID, st.Action)
			}
		}
	}
	for _, f := range s.FuelStations {
		if f.ID == "" || !f.Point.Valid() || f.PricePerGallon <= 0 {
			return nil, fmt.Errorf("parse seed: invalid fuel station %q", f.ID)
		}
	}
	for _, a := range s.RestAreas {
		if a.ID == "" || !a.Point.Valid() {
			return nil, fmt.Errorf("parse seed: invalid rest area %q", a.ID)
		}
	}

	return &s, nil
}

// SeedFromJSON upserts the fixture at jsonPath in one transaction.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	s, err := ParseSeed(bytes)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range s.Drivers {
		var split *float64
		if d.HOS.SplitSleeper != nil {
			split = &d.HOS.SplitSleeper.FirstPeriodHours
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO drivers (tenant_id, id, name, lat, lon, hours_driven, on_duty_time,
			hours_since_break, cycle_hours_used, split_first_period_hours)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (tenant_id, id) DO UPDATE
		SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
			hours_driven = EXCLUDED.hours_driven, on_duty_time = EXCLUDED.on_duty_time,
			hours_since_break = EXCLUDED.hours_since_break, cycle_hours_used = EXCLUDED.cycle_hours_used,
			split_first_period_hours = EXCLUDED.split_first_period_hours;
		`, d.TenantID, d.ID, d.Name, d.CurrentLocation.Lat, d.CurrentLocation.Lon,
			d.HOS.HoursDriven, d.HOS.OnDutyTime, d.HOS.HoursSinceBreak, d.HOS.CycleHoursUsed, split)
		if err != nil {
			return fmt.Errorf("seed: insert driver %q: %w", d.ID, err)
		}
	}

	for _, v := range s.Vehicles {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO vehicles (tenant_id, id, unit_name, current_gallons, capacity_gallons, miles_per_gallon)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, id) DO UPDATE
		SET unit_name = EXCLUDED.unit_name, current_gallons = EXCLUDED.current_gallons,
			capacity_gallons = EXCLUDED.capacity_gallons, miles_per_gallon = EXCLUDED.miles_per_gallon;
		`, v.TenantID, v.ID, v.UnitName, v.Fuel.CurrentGallons, v.Fuel.CapacityGallons, v.Fuel.MilesPerGallon)
		if err != nil {
			return fmt.Errorf("seed: insert vehicle %q: %w", v.ID, err)
		}
	}

	if err := seedLoads(ctx, tx, s.Loads); err != nil {
		return err
	}

	for _, f := range s.FuelStations {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO fuel_stations (id, name, lat, lon, price_per_gallon)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon,
			price_per_gallon = EXCLUDED.price_per_gallon;
		`, f.ID, f.Name, f.Point.Lat, f.Point.Lon, f.PricePerGallon)
		if err != nil {
			return fmt.Errorf("seed: insert fuel station %q: %w", f.ID, err)
		}
	}

	for _, a := range s.RestAreas {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO rest_areas (id, name, lat, lon, spaces)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, lat = EXCLUDED.lat, lon = EXCLUDED.lon, spaces = EXCLUDED.spaces;
		`, a.ID, a.Name, a.Point.Lat, a.Point.Lon, a.Spaces)
		if err != nil {
			return fmt.Errorf("seed: insert rest area %q: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func seedLoads(ctx context.Context, tx *sql.Tx, loads []domain.Load) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO load_stops (tenant_id, load_id, stop_id, seq, name, address, lat, lon,
		action, dock_hours, window_earliest, window_latest, customer_reference)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`)
	if err != nil {
		return fmt.Errorf("seed: prepare stop insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range loads {
		if _, err := tx.ExecContext(ctx, `DELETE FROM loads WHERE tenant_id = $1 AND id = $2;`, l.TenantID, l.ID); err != nil {
			return fmt.Errorf("seed: replace load %q: %w", l.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO loads (tenant_id, id) VALUES ($1, $2);`, l.TenantID, l.ID); err != nil {
			return fmt.Errorf("seed: insert load %q: %w", l.ID, err)
		}

		for i, st := range l.Stops {
			var lat, lon sql.NullFloat64
			if st.Point.Valid() {
				lat = sql.NullFloat64{Float64: st.Point.Lat, Valid: true}
				lon = sql.NullFloat64{Float64: st.Point.Lon, Valid: true}
			}
			var earliest, latest sql.NullTime
			if st.Window != nil && st.Window.Earliest != nil {
				earliest = sql.NullTime{Time: *st.Window.Earliest, Valid: true}
			}
			if st.Window != nil && st.Window.Latest != nil {
				latest = sql.NullTime{Time: *st.Window.Latest, Valid: true}
			}

			_, err := stmt.ExecContext(ctx, l.TenantID, l.ID, st.ID, i, st.Name, st.Address, lat, lon,
				string(st.Action), st.DockHours, earliest, latest, st.CustomerReference)
			if err != nil {
				return fmt.Errorf("seed: insert stop %q of load %q: %w", st.ID, l.ID, err)
			}
		}
	}
	return nil
}
