package stations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
)

// SQLDirectory reads stations from the fuel_stations and rest_areas tables.
// The query narrows rows to a bounding box; the exact radius or corridor test
// runs in Go.
type SQLDirectory struct {
	DB *sql.DB
}

func NewSQLDirectory(db *sql.DB) *SQLDirectory {
	return &SQLDirectory{DB: db}
}

func (s *SQLDirectory) fuelIn(ctx context.Context, b bbox) ([]domain.FuelStation, error) {
	if s.DB == nil {
		return nil, errors.New("station directory: db is nil")
	}

	q := `
	SELECT id, name, lat, lon, price_per_gallon
	FROM fuel_stations
	WHERE lat BETWEEN $1 AND $2
		AND lon BETWEEN $3 AND $4;
	`

	rows, err := s.DB.QueryContext(ctx, q, b.minLat, b.maxLat, b.minLon, b.maxLon)
	if err != nil {
		return nil, fmt.Errorf("query fuel_stations: %w", err)
	}
	defer rows.Close()

	var out []domain.FuelStation
	for rows.Next() {
		var f domain.FuelStation
		if err := rows.Scan(&f.ID, &f.Name, &f.Point.Lat, &f.Point.Lon, &f.PricePerGallon); err != nil {
			return nil, fmt.Errorf("scan fuel_stations: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fuel_stations row iteration: %w", err)
	}
	return out, nil
}

func (s *SQLDirectory) restIn(ctx context.Context, b bbox) ([]domain.RestArea, error) {
	if s.DB == nil {
		return nil, errors.New("station directory: db is nil")
	}

	q := `
	SELECT id, name, lat, lon, spaces
	FROM rest_areas
	WHERE lat BETWEEN $1 AND $2
		AND lon BETWEEN $3 AND $4;
	`

	rows, err := s.DB.QueryContext(ctx, q, b.minLat, b.maxLat, b.minLon, b.maxLon)
	if err != nil {
		return nil, fmt.Errorf("query rest_areas: %w", err)
	}
	defer rows.Close()

	var out []domain.RestArea
	for rows.Next() {
		var a domain.RestArea
		if err := rows.Scan(&a.ID, &a.Name, &a.Point.Lat, &a.Point.Lon, &a.Spaces); err != nil {
			return nil, fmt.Errorf("scan rest_areas: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rest_areas row iteration: %w", err)
	}
	return out, nil
}

func (s *SQLDirectory) FindFuelStopsNearPoint(ctx context.Context, point domain.Coordinates, radiusMiles float64) (_ []domain.FuelCandidate, err error) {
	defer obs.Time(ctx, "stations.FindFuelStopsNearPoint")(&err)

	all, err := s.fuelIn(ctx, boxAround(radiusMiles, point))
	if err != nil {
		return nil, fmt.Errorf("find fuel near point: %w", err)
	}
	return matchFuelNear(all, point, radiusMiles), nil
}

func (s *SQLDirectory) FindFuelStopsAlongCorridor(ctx context.Context, from, to domain.Coordinates, widthMiles float64) (_ []domain.FuelCandidate, err error) {
	defer obs.Time(ctx, "stations.FindFuelStopsAlongCorridor")(&err)

	all, err := s.fuelIn(ctx, boxAround(widthMiles, from, to))
	if err != nil {
		return nil, fmt.Errorf("find fuel along corridor: %w", err)
	}
	return matchFuelCorridor(all, from, to, widthMiles), nil
}

func (s *SQLDirectory) FindRestStopsNearPoint(ctx context.Context, point domain.Coordinates, radiusMiles float64) (_ []domain.RestCandidate, err error) {
	defer obs.Time(ctx, "stations.FindRestStopsNearPoint")(&err)

	all, err := s.restIn(ctx, boxAround(radiusMiles, point))
	if err != nil {
		return nil, fmt.Errorf("find rest near point: %w", err)
	}
	return matchRestNear(all, point, radiusMiles), nil
}

func (s *SQLDirectory) FindRestStopsAlongCorridor(ctx context.Context, from, to domain.Coordinates, widthMiles float64) (_ []domain.RestCandidate, err error) {
	defer obs.Time(ctx, "stations.FindRestStopsAlongCorridor")(&err)

	all, err := s.restIn(ctx, boxAround(widthMiles, from, to))
	if err != nil {
		return nil, fmt.Errorf("find rest along corridor: %w", err)
	}
	return matchRestCorridor(all, from, to, widthMiles), nil
}
