package distance

import (
	"context"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/ports"
	"sync"
)

// MockRoute pins the answer between two points. Routes apply in both
// directions.
type MockRoute struct {
	From, To domain.Coordinates
	Miles    float64
	Hours    float64
}

// MockOracle serves fixed routes and falls back to an estimate for anything
// else. Setting Err makes every call fail.
type MockOracle struct {
	Err      error
	Fallback *EstimateOracle

	mu     sync.Mutex
	routes map[[2]string]ports.RouteEstimate
	calls  int
}

func NewMockOracle(routes []MockRoute, fallback *EstimateOracle) *MockOracle {
	m := &MockOracle{Fallback: fallback, routes: make(map[[2]string]ports.RouteEstimate, 2*len(routes))}
	for _, r := range routes {
		est := ports.RouteEstimate{DistanceMiles: r.Miles, DriveTimeHours: r.Hours, Source: ports.SourceProvider}
		m.routes[[2]string{r.From.Key(), r.To.Key()}] = est
		m.routes[[2]string{r.To.Key(), r.From.Key()}] = est
	}
	return m
}

// Calls reports how many oracle calls were made.
func (m *MockOracle) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockOracle) lookup(a, b domain.Coordinates) ports.RouteEstimate {
	if est, ok := m.routes[[2]string{a.Key(), b.Key()}]; ok {
		return est
	}
	if a.Key() == b.Key() {
		return ports.RouteEstimate{Source: ports.SourceProvider}
	}
	fb := m.Fallback
	if fb == nil {
		fb = NewEstimateOracle(1.2, 55)
	}
	return fb.estimate(a, b)
}

func (m *MockOracle) GetDistanceMatrix(_ context.Context, points []ports.Waypoint) (map[ports.Pair]ports.RouteEstimate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}

	out := make(map[ports.Pair]ports.RouteEstimate, len(points)*len(points))
	for _, a := range points {
		for _, b := range points {
			if a.ID != b.ID {
				out[ports.Pair{From: a.ID, To: b.ID}] = m.lookup(a.Point, b.Point)
			}
		}
	}
	return out, nil
}

func (m *MockOracle) GetRoute(_ context.Context, origin, destination domain.Coordinates, waypoints []domain.Coordinates) (ports.RouteResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return ports.RouteResult{}, m.Err
	}

	path := append(append([]domain.Coordinates{origin}, waypoints...), destination)
	res := ports.RouteResult{Geometry: path, Waypoints: path}
	res.Source = ports.SourceProvider
	for i := 1; i < len(path); i++ {
		leg := m.lookup(path[i-1], path[i])
		res.DistanceMiles += leg.DistanceMiles
		res.DriveTimeHours += leg.DriveTimeHours
		if leg.Source == ports.SourceEstimate {
			res.Source = ports.SourceEstimate
		}
	}
	return res, nil
}
