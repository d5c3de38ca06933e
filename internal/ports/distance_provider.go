package ports

import (
	"context"
	"hos-route-service/internal/domain"
)

// Sources reported on RouteEstimate.
const (
	SourceProvider = "provider"
	SourceCache    = "cache"
	SourceEstimate = "estimate"
)

// Road distance and drive time between two points.
type RouteEstimate struct {
	DistanceMiles  float64
	DriveTimeHours float64
	Source         string
}

// Waypoint is a point the oracle is asked about, keyed by a caller-chosen id.
type Waypoint struct {
	ID    string
	Point domain.Coordinates
}

// Ordered (from, to) pair of waypoint ids.
type Pair struct {
	From string
	To   string
}

// RouteResult is a full route between two points, optionally through waypoints.
type RouteResult struct {
	RouteEstimate
	Geometry  []domain.Coordinates
	Waypoints []domain.Coordinates
}

// Contract for retrieving road distance and drive time between points.
type DistanceOracle interface {
	// Return the distance/time for every ordered pair of distinct points.
	GetDistanceMatrix(ctx context.Context, points []Waypoint) (map[Pair]RouteEstimate, error)
	// Return a single route from origin to destination through optional waypoints.
	GetRoute(ctx context.Context, origin, destination domain.Coordinates, waypoints []domain.Coordinates) (RouteResult, error)
}

// Persistent cache for origin->destination estimates keyed by Coordinates.Key().
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]RouteEstimate, error)
	PutMany(ctx context.Context, origin string, results map[string]RouteEstimate) error
}

// Resolves a free-form address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}
