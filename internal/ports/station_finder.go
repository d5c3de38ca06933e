package ports

import (
	"context"
	"hos-route-service/internal/domain"
)

// Fuel stop lookups. Both methods return candidates sorted cheapest first.
type FuelStopFinder interface {
	FindFuelStopsNearPoint(ctx context.Context, point domain.Coordinates, radiusMiles float64) ([]domain.FuelCandidate, error)
	FindFuelStopsAlongCorridor(ctx context.Context, from, to domain.Coordinates, widthMiles float64) ([]domain.FuelCandidate, error)
}

// Rest area lookups. Both methods return candidates sorted by detour ascending.
type RestStopFinder interface {
	FindRestStopsNearPoint(ctx context.Context, point domain.Coordinates, radiusMiles float64) ([]domain.RestCandidate, error)
	FindRestStopsAlongCorridor(ctx context.Context, from, to domain.Coordinates, widthMiles float64) ([]domain.RestCandidate, error)
}
