package services

import (
	"context"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/ports"
	"sync"
	"testing"
	"time"
)

const testTenant = "acme"

var (
	westDock = domain.Coordinates{Lat: 35, Lon: -110}
	eastDock = domain.Coordinates{Lat: 35, Lon: -107}
	midLine  = domain.Coordinates{Lat: 35, Lon: -108.65}

	departAt = time.Date(2026, 1, 12, 6, 0, 0, 0, time.UTC)
)

type memFleet struct {
	drivers  map[string]domain.Driver
	vehicles map[string]domain.Vehicle
	loads    map[string]domain.Load
}

func (f *memFleet) GetDriver(_ context.Context, tenantID, id string) (*domain.Driver, error) {
	d, ok := f.drivers[id]
	if !ok || d.TenantID != tenantID {
		return nil, fmt.Errorf("driver %q: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (f *memFleet) GetVehicle(_ context.Context, tenantID, id string) (*domain.Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return nil, fmt.Errorf("vehicle %q: %w", id, domain.ErrNotFound)
	}
	return &v, nil
}

func (f *memFleet) GetLoads(_ context.Context, tenantID string, ids []string) ([]*domain.Load, error) {
	out := make([]*domain.Load, 0, len(ids))
	for _, id := range ids {
		l, ok := f.loads[id]
		if !ok || l.TenantID != tenantID {
			return nil, fmt.Errorf("load %q: %w", id, domain.ErrNotFound)
		}
		out = append(out, &l)
	}
	return out, nil
}

// twoStopFleet is a fresh driver parked at the pickup of a single load that
// runs 200 miles east to its delivery.
func twoStopFleet() *memFleet {
	return &memFleet{
		drivers: map[string]domain.Driver{
			"drv-1": {ID: "drv-1", TenantID: testTenant, Name: "Sam", CurrentLocation: westDock},
		},
		vehicles: map[string]domain.Vehicle{
			"trk-1": {ID: "trk-1", TenantID: testTenant, Fuel: domain.FuelState{CurrentGallons: 200, CapacityGallons: 200, MilesPerGallon: 6.5}},
		},
		loads: map[string]domain.Load{
			"L1": {ID: "L1", TenantID: testTenant, Stops: []domain.Stop{
				{ID: "a", Name: "Tucson DC", Point: westDock, Action: domain.StopActionPickup, DockHours: 2},
				{ID: "b", Name: "El Paso Store", Point: eastDock, Action: domain.StopActionDelivery, DockHours: 1.5},
			}},
		},
	}
}

func twoStopRequest() PlanTripRequest {
	return PlanTripRequest{
		TenantID:  testTenant,
		DriverID:  "drv-1",
		VehicleID: "trk-1",
		LoadIDs:   []string{"L1"},
		DepartAt:  departAt,
	}
}

type memStore struct {
	mu    sync.Mutex
	plans []*domain.Plan
	err   error
}

func (s *memStore) CreatePlan(_ context.Context, plan *domain.Plan) (domain.PlanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return domain.PlanRecord{}, s.err
	}
	s.plans = append(s.plans, plan)
	n := len(s.plans)
	return domain.PlanRecord{ID: fmt.Sprintf("plan-%d", n), DisplayID: fmt.Sprintf("RP-%d", n), Status: domain.PlanStatusDraft}, nil
}

func (s *memStore) TransitionStatus(context.Context, string, string, domain.PlanStatus) (domain.PlanRecord, error) {
	return domain.PlanRecord{}, errors.New("not implemented")
}

type memPublisher struct {
	got []domain.PlanRecord
	err error
}

func (p *memPublisher) PublishPlanCreated(_ context.Context, rec domain.PlanRecord, _ *domain.Plan) error {
	p.got = append(p.got, rec)
	return p.err
}

type mapGeocoder map[string]domain.Coordinates

func (g mapGeocoder) Geocode(_ context.Context, address string) (domain.Coordinates, error) {
	c, ok := g[address]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: no match", address)
	}
	return c, nil
}

type fixedWeather struct {
	conds []ports.WeatherCondition
	err   error
}

func (w fixedWeather) GetWeatherAlongRoute(context.Context, []domain.Coordinates, time.Time) ([]ports.WeatherCondition, error) {
	return w.conds, w.err
}

func newTestPlanner(t *testing.T, deps PlannerDeps, cfg PlannerConfig) *RoutePlanner {
	t.Helper()
	if deps.HOS == nil {
		engine, err := hos.NewEngine(hos.DefaultLimits())
		if err != nil {
			t.Fatalf("NewEngine error: %v", err)
		}
		deps.HOS = engine
	}
	p, err := NewRoutePlanner(deps, cfg)
	if err != nil {
		t.Fatalf("NewRoutePlanner error: %v", err)
	}
	return p
}

func newTestTripPlanner(t *testing.T, deps TripPlannerDeps) *TripPlanner {
	t.Helper()
	tp, err := NewTripPlanner(deps)
	if err != nil {
		t.Fatalf("NewTripPlanner error: %v", err)
	}
	return tp
}

func segmentsOf(p *domain.Plan, kind domain.SegmentType) int {
	return len(p.SegmentsOfType(kind))
}

// checkTimeline asserts the properties every plan must have: sequence numbers
// 1..n without gaps and totals that add up.
func checkTimeline(t *testing.T, p *domain.Plan) {
	t.Helper()
	var miles float64
	for i, s := range p.Segments {
		if s.SequenceOrder != i+1 {
			t.Fatalf("segment %d has sequence_order %d", i, s.SequenceOrder)
		}
		start, end := s.ArriveAt, s.DepartAt
		if s.Type == domain.SegmentDrive {
			start, end = s.DepartAt, s.ArriveAt
		}
		if end.Before(start) {
			t.Fatalf("segment %d ends before it starts", s.SequenceOrder)
		}
		miles += s.DistanceMiles()
	}
	if d := miles - p.Totals.DistanceMiles; d > 1e-6 || d < -1e-6 {
		t.Fatalf("drive distance %.6f does not match total %.6f", miles, p.Totals.DistanceMiles)
	}
}
