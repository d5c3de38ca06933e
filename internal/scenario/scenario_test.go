package scenario

import (
	"context"
	"errors"
	"hos-route-service/internal/domain"
	"strings"
	"testing"
)

const sample = `
name: short-haul
departure_time: 2026-01-12T06:00:00Z
driver:
  id: drv-1
  location: {lat: 33.4484, lon: -112.0740}
  hos: {cycle_hours_used: 20}
vehicle:
  id: trk-1
  fuel: {current_gallons: 100, capacity_gallons: 200, miles_per_gallon: 6}
loads:
  - id: L1
    stops:
      - {id: a, action: pickup, point: {lat: 33.3, lon: -111.9}, dock_hours: 1}
      - {id: b, action: delivery, point: {lat: 32.2226, lon: -110.9747}, dock_hours: 1}
end_location: {lat: 33.4484, lon: -112.0740}
planner:
  avg_speed_mph: 50
  weather_timeout: 2s
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Planner.AvgSpeedMph != 50 {
		t.Fatalf("planner override not applied: %v", s.Planner.AvgSpeedMph)
	}
	if s.Planner.RoadFactor != 1.2 || s.Planner.MaxCandidates != 3 {
		t.Fatalf("unset planner fields should keep defaults: %+v", s.Planner)
	}
	if s.Planner.WeatherTimeout.Seconds() != 2 {
		t.Fatalf("unexpected weather timeout %v", s.Planner.WeatherTimeout)
	}

	req := s.Request()
	if req.Priority != domain.PriorityMinimizeTime {
		t.Fatalf("empty priority should default to minimize_time, got %q", req.Priority)
	}
	if req.Params == nil || req.Params.EndLocation == nil {
		t.Fatalf("end location not carried into the request")
	}
	if len(req.LoadIDs) != 1 || req.LoadIDs[0] != "L1" {
		t.Fatalf("unexpected load ids %v", req.LoadIDs)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name, from, to string
	}{
		{"no departure", "departure_time: 2026-01-12T06:00:00Z", ""},
		{"bad priority", "name: short-haul", "name: short-haul\npriority: fastest"},
		{"no driver id", "id: drv-1", "id: \"\""},
		{"bad planner", "avg_speed_mph: 50", "avg_speed_mph: -1"},
		{"negative hos", "cycle_hours_used: 20", "cycle_hours_used: -5"},
		{"hos beyond a day", "hos: {cycle_hours_used: 20}", "hos: {hours_driven: 30}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(strings.Replace(sample, tt.from, tt.to, 1))); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadShippedScenario(t *testing.T) {
	s, err := Load("../../scenarios/phoenix-el-paso.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Planner.AvgSpeedMph != 58 {
		t.Fatalf("expected the file's 58 mph, got %v", s.Planner.AvgSpeedMph)
	}
	if s.Planner.FuelSafetyMargin != 1.2 || s.Planner.FuelingHours != 0.25 {
		t.Fatalf("unset planner fields should keep defaults: %+v", s.Planner)
	}
	if len(s.Loads) != 1 || s.Loads[0].ID != "L-100" || len(s.Loads[0].Stops) != 2 {
		t.Fatalf("unexpected loads %+v", s.Loads)
	}
}

func TestParseWithoutPlannerSection(t *testing.T) {
	trimmed := sample[:strings.Index(sample, "planner:")]
	s, err := Parse([]byte(trimmed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Planner == nil || s.Planner.AvgSpeedMph != 55 {
		t.Fatalf("expected default planner config, got %+v", s.Planner)
	}
}

func TestFleet(t *testing.T) {
	s, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := s.Fleet()
	ctx := context.Background()

	d, err := f.GetDriver(ctx, Tenant, "drv-1")
	if err != nil || d.HOS.CycleHoursUsed != 20 {
		t.Fatalf("unexpected driver %+v %v", d, err)
	}
	if _, err := f.GetDriver(ctx, "other", "drv-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for another tenant, got %v", err)
	}
	if _, err := f.GetVehicle(ctx, Tenant, "trk-9"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	loads, err := f.GetLoads(ctx, Tenant, []string{"L1"})
	if err != nil || len(loads) != 1 || len(loads[0].Stops) != 2 {
		t.Fatalf("unexpected loads %+v %v", loads, err)
	}
	if _, err := f.GetLoads(ctx, Tenant, []string{"L1", "L2"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for L2, got %v", err)
	}
}
