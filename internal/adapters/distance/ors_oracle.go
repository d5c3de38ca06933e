package distance

import (
	"context"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"log"
)

// ORSOracle implements ports.DistanceOracle using the OpenRouteService
// heavy-goods-vehicle profile.
//
// Matrix rows and waypoint-free routes pass through the optional cache, keyed
// by Coordinates.Key(). The oracle is safe for concurrent use.
type ORSOracle struct {
	client *orsClient
	cache  ports.DistanceCache
}

func NewORSOracle(apiKey, baseURL string, cache ports.DistanceCache) (*ORSOracle, error) {
	client, err := newORSClient(apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	return &ORSOracle{client: client, cache: cache}, nil
}

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources,omitempty"`
	Destinations []int       `json:"destinations,omitempty"`
	Metrics      []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// GetDistanceMatrix answers every ordered pair of distinct points. Pairs found
// in the cache are served from it; when anything is missing the whole matrix
// is fetched in one request and written back.
func (o *ORSOracle) GetDistanceMatrix(
	ctx context.Context,
	points []ports.Waypoint,
) (_ map[ports.Pair]ports.RouteEstimate, err error) {
	defer obs.Time(ctx, "ors.GetDistanceMatrix")(&err)

	out := make(map[ports.Pair]ports.RouteEstimate, len(points)*len(points))
	if len(points) < 2 {
		return out, nil
	}

	for _, p := range points {
		if !p.Point.Valid() {
			return nil, fmt.Errorf("ORS matrix: waypoint %q has invalid coordinates", p.ID)
		}
	}

	if o.fillFromCache(ctx, points, out) {
		return out, nil
	}

	locations := make([][]float64, 0, len(points))
	for _, p := range points {
		locations = append(locations, p.Point.CoordsToList())
	}

	var mr matrixResponse
	req := matrixRequest{Locations: locations, Metrics: []string{"distance", "duration"}}
	if err := o.client.postJSON(ctx, "/v2/matrix/"+orsProfile, req, &mr); err != nil {
		return nil, fmt.Errorf("ORS matrix: %w", err)
	}

	if len(mr.Distances) != len(points) || len(mr.Durations) != len(points) {
		return nil, fmt.Errorf(
			"ORS matrix: expected %d rows; got distances=%d durations=%d",
			len(points), len(mr.Distances), len(mr.Durations),
		)
	}

	for i, from := range points {
		if len(mr.Distances[i]) != len(points) || len(mr.Durations[i]) != len(points) {
			return nil, fmt.Errorf("ORS matrix: row %d has the wrong length", i)
		}

		row := make(map[string]ports.RouteEstimate, len(points))
		for j, to := range points {
			if i == j {
				continue
			}
			meters, seconds := mr.Distances[i][j], mr.Durations[i][j]
			if meters == nil || seconds == nil {
				return nil, fmt.Errorf("ORS matrix: no route from %q to %q", from.ID, to.ID)
			}
			est := ports.RouteEstimate{
				DistanceMiles:  *meters / metersPerMile,
				DriveTimeHours: *seconds / 3600,
				Source:         ports.SourceProvider,
			}
			out[ports.Pair{From: from.ID, To: to.ID}] = est
			row[to.Point.Key()] = est
		}

		if o.cache != nil {
			if err := o.cache.PutMany(ctx, from.Point.Key(), row); err != nil {
				log.Printf("req_id=%s op=ors.GetDistanceMatrix distance cache write failed: %v", obs.RequestID(ctx), err)
			}
		}
	}

	return out, nil
}

// fillFromCache copies cached pairs into out and reports whether every pair
// was found. Cache errors count as misses.
func (o *ORSOracle) fillFromCache(ctx context.Context, points []ports.Waypoint, out map[ports.Pair]ports.RouteEstimate) bool {
	if o.cache == nil {
		return false
	}

	keys := make([]string, 0, len(points))
	for _, p := range points {
		keys = append(keys, p.Point.Key())
	}

	complete := true
	for _, from := range points {
		hits, err := o.cache.GetMany(ctx, from.Point.Key(), keys)
		if err != nil {
			log.Printf("req_id=%s op=ors.GetDistanceMatrix distance cache read failed: %v", obs.RequestID(ctx), err)
			return false
		}
		for _, to := range points {
			if to.ID == from.ID {
				continue
			}
			if to.Point.Key() == from.Point.Key() {
				out[ports.Pair{From: from.ID, To: to.ID}] = ports.RouteEstimate{Source: ports.SourceCache}
				continue
			}
			est, ok := hits[to.Point.Key()]
			if !ok {
				complete = false
				continue
			}
			out[ports.Pair{From: from.ID, To: to.ID}] = est
		}
	}
	return complete
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
			WayPoints []int `json:"way_points"`
		} `json:"properties"`
	} `json:"features"`
}

// GetRoute fetches a single route through optional waypoints.
func (o *ORSOracle) GetRoute(
	ctx context.Context,
	origin, destination domain.Coordinates,
	waypoints []domain.Coordinates,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.GetRoute")(&err)

	if !origin.Valid() || !destination.Valid() {
		return ports.RouteResult{}, errors.New("ORS route: invalid origin or destination")
	}

	if len(waypoints) == 0 && o.cache != nil {
		hits, err := o.cache.GetMany(ctx, origin.Key(), []string{destination.Key()})
		if err == nil {
			if est, ok := hits[destination.Key()]; ok {
				return ports.RouteResult{
					RouteEstimate: est,
					Waypoints:     []domain.Coordinates{origin, destination},
				}, nil
			}
		}
	}

	coords := make([][]float64, 0, len(waypoints)+2)
	coords = append(coords, origin.CoordsToList())
	for _, w := range waypoints {
		coords = append(coords, w.CoordsToList())
	}
	coords = append(coords, destination.CoordsToList())

	var dr directionsResponse
	if err := o.client.postJSON(ctx, "/v2/directions/"+orsProfile+"/geojson", directionsRequest{Coordinates: coords}, &dr); err != nil {
		return ports.RouteResult{}, fmt.Errorf("ORS route: %w", err)
	}
	if len(dr.Features) == 0 {
		return ports.RouteResult{}, errors.New("ORS route: no route returned")
	}

	f := dr.Features[0]
	res := ports.RouteResult{
		RouteEstimate: ports.RouteEstimate{
			DistanceMiles:  f.Properties.Summary.Distance / metersPerMile,
			DriveTimeHours: f.Properties.Summary.Duration / 3600,
			Source:         ports.SourceProvider,
		},
	}
	for _, c := range f.Geometry.Coordinates {
		if len(c) < 2 {
			return ports.RouteResult{}, errors.New("ORS route: invalid geometry coordinate")
		}
		res.Geometry = append(res.Geometry, domain.Coordinates{Lon: c[0], Lat: c[1]})
	}
	for _, idx := range f.Properties.WayPoints {
		if idx >= 0 && idx < len(res.Geometry) {
			res.Waypoints = append(res.Waypoints, res.Geometry[idx])
		}
	}

	if len(waypoints) == 0 && o.cache != nil {
		if err := o.cache.PutMany(ctx, origin.Key(), map[string]ports.RouteEstimate{destination.Key(): res.RouteEstimate}); err != nil {
			log.Printf("req_id=%s op=ors.GetRoute distance cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	return res, nil
}
