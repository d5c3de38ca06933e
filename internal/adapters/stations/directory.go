package stations

import (
	"context"
	"hos-route-service/internal/domain"
)

// Directory is an in-memory station list. It is read-only after construction
// and safe for concurrent use.
type Directory struct {
	fuel []domain.FuelStation
	rest []domain.RestArea
}

func NewDirectory(fuel []domain.FuelStation, rest []domain.RestArea) *Directory {
	return &Directory{
		fuel: append([]domain.FuelStation(nil), fuel...),
		rest: append([]domain.RestArea(nil), rest...),
	}
}

func (d *Directory) FindFuelStopsNearPoint(_ context.Context, point domain.Coordinates, radiusMiles float64) ([]domain.FuelCandidate, error) {
	return matchFuelNear(d.fuel, point, radiusMiles), nil
}

func (d *Directory) FindFuelStopsAlongCorridor(_ context.Context, from, to domain.Coordinates, widthMiles float64) ([]domain.FuelCandidate, error) {
	return matchFuelCorridor(d.fuel, from, to, widthMiles), nil
}

func (d *Directory) FindRestStopsNearPoint(_ context.Context, point domain.Coordinates, radiusMiles float64) ([]domain.RestCandidate, error) {
	return matchRestNear(d.rest, point, radiusMiles), nil
}

func (d *Directory) FindRestStopsAlongCorridor(_ context.Context, from, to domain.Coordinates, widthMiles float64) ([]domain.RestCandidate, error) {
	return matchRestCorridor(d.rest, from, to, widthMiles), nil
}
