package distance

import (
	"context"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"hos-route-service/internal/ports"
)

// EstimateOracle answers from great-circle distance scaled by a road factor,
// driven at an average speed. It never fails.
type EstimateOracle struct {
	RoadFactor  float64
	AvgSpeedMph float64
}

func NewEstimateOracle(roadFactor, avgSpeedMph float64) *EstimateOracle {
	return &EstimateOracle{RoadFactor: roadFactor, AvgSpeedMph: avgSpeedMph}
}

func (e *EstimateOracle) estimate(a, b domain.Coordinates) ports.RouteEstimate {
	miles, hours := geo.RoadEstimate(a, b, e.RoadFactor, e.AvgSpeedMph)
	return ports.RouteEstimate{DistanceMiles: miles, DriveTimeHours: hours, Source: ports.SourceEstimate}
}

func (e *EstimateOracle) GetDistanceMatrix(_ context.Context, points []ports.Waypoint) (map[ports.Pair]ports.RouteEstimate, error) {
	out := make(map[ports.Pair]ports.RouteEstimate, len(points)*len(points))
	for _, a := range points {
		for _, b := range points {
			if a.ID == b.ID {
				continue
			}
			out[ports.Pair{From: a.ID, To: b.ID}] = e.estimate(a.Point, b.Point)
		}
	}
	return out, nil
}

func (e *EstimateOracle) GetRoute(_ context.Context, origin, destination domain.Coordinates, waypoints []domain.Coordinates) (ports.RouteResult, error) {
	path := make([]domain.Coordinates, 0, len(waypoints)+2)
	path = append(path, origin)
	path = append(path, waypoints...)
	path = append(path, destination)

	res := ports.RouteResult{
		RouteEstimate: ports.RouteEstimate{Source: ports.SourceEstimate},
		Geometry:      path,
		Waypoints:     path,
	}
	for i := 1; i < len(path); i++ {
		leg := e.estimate(path[i-1], path[i])
		res.DistanceMiles += leg.DistanceMiles
		res.DriveTimeHours += leg.DriveTimeHours
	}
	return res, nil
}
