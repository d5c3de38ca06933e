package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
)

// PostgresFleetRepository implements ports.FleetRepository.
type PostgresFleetRepository struct{ DB *sql.DB }

func NewPostgresFleetRepository(db *sql.DB) *PostgresFleetRepository {
	return &PostgresFleetRepository{DB: db}
}

func (r *PostgresFleetRepository) GetDriver(ctx context.Context, tenantID, driverID string) (_ *domain.Driver, err error) {
	defer obs.Time(ctx, "fleet.GetDriver")(&err)

	if r.DB == nil {
		return nil, errors.New("fleet repository: DB is nil")
	}

	query := `
	SELECT name, lat, lon, hours_driven, on_duty_time, hours_since_break,
		cycle_hours_used, split_first_period_hours
	FROM drivers
	WHERE tenant_id = $1 AND id = $2;
	`

	d := domain.Driver{ID: driverID, TenantID: tenantID}
	var split sql.NullFloat64
	err = r.DB.QueryRowContext(ctx, query, tenantID, driverID).Scan(
		&d.Name, &d.CurrentLocation.Lat, &d.CurrentLocation.Lon,
		&d.HOS.HoursDriven, &d.HOS.OnDutyTime, &d.HOS.HoursSinceBreak,
		&d.HOS.CycleHoursUsed, &split,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get driver %q: %w", driverID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get driver %q: %w", driverID, err)
	}
	if split.Valid {
		d.HOS.SplitSleeper = &domain.SplitSleeperState{FirstPeriodHours: split.Float64}
	}

	return &d, nil
}

func (r *PostgresFleetRepository) GetVehicle(ctx context.Context, tenantID, vehicleID string) (_ *domain.Vehicle, err error) {
	defer obs.Time(ctx, "fleet.GetVehicle")(&err)

	if r.DB == nil {
		return nil, errors.New("fleet repository: DB is nil")
	}

	query := `
	SELECT unit_name, current_gallons, capacity_gallons, miles_per_gallon
	FROM vehicles
	WHERE tenant_id = $1 AND id = $2;
	`

	v := domain.Vehicle{ID: vehicleID, TenantID: tenantID}
	err = r.DB.QueryRowContext(ctx, query, tenantID, vehicleID).Scan(
		&v.UnitName, &v.Fuel.CurrentGallons, &v.Fuel.CapacityGallons, &v.Fuel.MilesPerGallon,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get vehicle %q: %w", vehicleID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle %q: %w", vehicleID, err)
	}

	return &v, nil
}

// GetLoads returns the loads in the order requested, each with its stops in
// seeded order. Any unknown id fails the whole lookup.
func (r *PostgresFleetRepository) GetLoads(ctx context.Context, tenantID string, loadIDs []string) (_ []*domain.Load, err error) {
	defer obs.Time(ctx, "fleet.GetLoads")(&err)

	if r.DB == nil {
		return nil, errors.New("fleet repository: DB is nil")
	}
	if len(loadIDs) == 0 {
		return nil, nil
	}

	byID := make(map[string]*domain.Load, len(loadIDs))

	rows, err := r.DB.QueryContext(ctx, `
	SELECT id FROM loads WHERE tenant_id = $1 AND id = ANY($2::text[]);
	`, tenantID, loadIDs)
	if err != nil {
		return nil, fmt.Errorf("get loads: query loads table: %w", err)
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("get loads: scan load: %w", err)
		}
		byID[id] = &domain.Load{ID: id, TenantID: tenantID}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("get loads: row iteration: %w", err)
	}
	rows.Close()

	for _, id := range loadIDs {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("get load %q: %w", id, domain.ErrNotFound)
		}
	}

	if err := r.attachStops(ctx, tenantID, loadIDs, byID); err != nil {
		return nil, err
	}

	out := make([]*domain.Load, 0, len(loadIDs))
	for _, id := range loadIDs {
		out = append(out, byID[id])
	}
	return out, nil
}

func (r *PostgresFleetRepository) attachStops(ctx context.Context, tenantID string, loadIDs []string, byID map[string]*domain.Load) error {
	query := `
	SELECT load_id, stop_id, name, address, lat, lon, action, dock_hours,
		window_earliest, window_latest, customer_reference
	FROM load_stops
	WHERE tenant_id = $1 AND load_id = ANY($2::text[])
	ORDER BY load_id, seq;
	`

	rows, err := r.DB.QueryContext(ctx, query, tenantID, loadIDs)
	if err != nil {
		return fmt.Errorf("get loads: query load_stops table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			loadID, action   string
			st               domain.Stop
			lat, lon         sql.NullFloat64
			earliest, latest sql.NullTime
		)
		if err := rows.Scan(&loadID, &st.ID, &st.Name, &st.Address, &lat, &lon, &action,
			&st.DockHours, &earliest, &latest, &st.CustomerReference); err != nil {
			return fmt.Errorf("get loads: scan stop: %w", err)
		}

		st.LoadID = loadID
		st.Action = domain.StopAction(action)
		if lat.Valid && lon.Valid {
			st.Point = domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}
		if earliest.Valid || latest.Valid {
			st.Window = &domain.AppointmentWindow{}
			if earliest.Valid {
				t := earliest.Time
				st.Window.Earliest = &t
			}
			if latest.Valid {
				t := latest.Time
				st.Window.Latest = &t
			}
		}

		if l, ok := byID[loadID]; ok {
			l.Stops = append(l.Stops, st)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get loads: stop iteration: %w", err)
	}
	return nil
}
