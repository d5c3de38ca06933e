package repositories

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

const validSeed = `{
  "drivers": [{"id": "drv-1", "tenant_id": "t1", "name": "Sam Ortiz",
    "current_location": {"lat": 33.4484, "lon": -112.074},
    "hos": {"hours_driven": 2, "on_duty_time": 3, "hours_since_break": 2, "cycle_hours_used": 40}}],
  "vehicles": [{"id": "trk-1", "tenant_id": "t1", "unit_name": "T-101",
    "fuel": {"current_gallons": 120, "capacity_gallons": 200, "miles_per_gallon": 6.5}}],
  "loads": [{"id": "load-1", "tenant_id": "t1", "stops": [
    {"id": "s1", "action": "pickup", "point": {"lat": 33.4, "lon": -112.0}, "dock_hours": 1},
    {"id": "s2", "action": "delivery", "address": "1 Main St, Tucson AZ", "dock_hours": 0.5}]}],
  "fuel_stations": [{"id": "f1", "name": "Picacho", "point": {"lat": 32.7, "lon": -111.5}, "price_per_gallon": 3.89}],
  "rest_areas": [{"id": "r1", "name": "Sacaton", "point": {"lat": 33.1, "lon": -111.7}, "spaces": 30}]
}`

func TestParseSeed(t *testing.T) {
	s, err := ParseSeed([]byte(validSeed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Drivers) != 1 || s.Drivers[0].HOS.CycleHoursUsed != 40 {
		t.Fatalf("unexpected drivers %+v", s.Drivers)
	}
	if len(s.Loads) != 1 || len(s.Loads[0].Stops) != 2 {
		t.Fatalf("unexpected loads %+v", s.Loads)
	}
	if s.Vehicles[0].Fuel.MilesPerGallon != 6.5 {
		t.Fatalf("unexpected vehicle %+v", s.Vehicles[0])
	}
}

func TestParseSeedRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
	}{
		{"driver without tenant", `"tenant_id": "t1", "name": "Sam Ortiz"`, `"tenant_id": "", "name": "Sam Ortiz"`},
		{"overfull tank", `"current_gallons": 120`, `"current_gallons": 320`},
		{"unknown action", `"action": "delivery"`, `"action": "teleport"`},
		{"free fuel", `"price_per_gallon": 3.89`, `"price_per_gallon": 0`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := strings.Replace(validSeed, tt.from, tt.to, 1)
			if data == validSeed {
				t.Fatalf("test fixture did not change")
			}
			if _, err := ParseSeed([]byte(data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDisplayID(t *testing.T) {
	id := uuid.MustParse("3f2a9c1e-7b44-4d0a-9e51-0c8f6a2b7d13")
	if got := DisplayID(id); got != "RP-3F2A9C1E" {
		t.Fatalf("unexpected display id %q", got)
	}
}
