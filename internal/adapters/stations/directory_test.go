package stations

import (
	"context"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"testing"
)

var (
	phoenix = domain.Coordinates{Lat: 33.4484, Lon: -112.0740}
	tucson  = domain.Coordinates{Lat: 32.2226, Lon: -110.9747}
)

func testDirectory() *Directory {
	mid := geo.Interpolate(phoenix, tucson, 0.5)
	quarter := geo.Interpolate(phoenix, tucson, 0.25)
	return NewDirectory(
		[]domain.FuelStation{
			{ID: "fuel-b", Point: mid, PricePerGallon: 3.899},
			{ID: "fuel-a", Point: mid, PricePerGallon: 3.899},
			{ID: "fuel-cheap", Point: quarter, PricePerGallon: 3.499},
			{ID: "fuel-far", Point: domain.Coordinates{Lat: 35.1983, Lon: -111.6513}, PricePerGallon: 2.999},
		},
		[]domain.RestArea{
			{ID: "rest-mid", Point: mid},
			{ID: "rest-quarter", Point: quarter},
			{ID: "rest-off", Point: domain.Coordinates{Lat: quarter.Lat + 0.5, Lon: quarter.Lon}},
		},
	)
}

func TestFuelCorridorOrdering(t *testing.T) {
	got, err := testDirectory().FindFuelStopsAlongCorridor(context.Background(), phoenix, tucson, 10)
	if err != nil {
		t.Fatalf("corridor: %v", err)
	}

	want := []string{"fuel-cheap", "fuel-a", "fuel-b"}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].Station.ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].Station.ID)
		}
	}
	if got[0].AlongMiles <= 0 || got[0].AlongMiles >= got[1].AlongMiles {
		t.Fatalf("unexpected along distances %v and %v", got[0].AlongMiles, got[1].AlongMiles)
	}
}

func TestRestCorridorExcludesFarAreas(t *testing.T) {
	got, err := testDirectory().FindRestStopsAlongCorridor(context.Background(), phoenix, tucson, 5)
	if err != nil {
		t.Fatalf("corridor: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 areas, got %d", len(got))
	}
	for _, c := range got {
		if c.Area.ID == "rest-off" {
			t.Fatalf("rest-off lies outside the corridor")
		}
		if c.DetourMiles > 5 {
			t.Fatalf("detour %v exceeds width", c.DetourMiles)
		}
	}
	if got[0].Area.ID != "rest-mid" && got[0].DetourMiles > got[1].DetourMiles {
		t.Fatalf("expected detour ascending, got %+v", got)
	}
}

func TestNearPoint(t *testing.T) {
	d := testDirectory()

	fuel, _ := d.FindFuelStopsNearPoint(context.Background(), phoenix, 15)
	if len(fuel) != 0 {
		t.Fatalf("expected no fuel within 15 miles of phoenix, got %d", len(fuel))
	}

	rest, _ := d.FindRestStopsNearPoint(context.Background(), geo.Interpolate(phoenix, tucson, 0.5), 1)
	if len(rest) != 1 || rest[0].Area.ID != "rest-mid" {
		t.Fatalf("expected rest-mid only, got %+v", rest)
	}
}

func TestBoxAroundContainsCorridor(t *testing.T) {
	b := boxAround(10, phoenix, tucson)
	for _, f := range []float64{0, 0.3, 0.7, 1} {
		if p := geo.Interpolate(phoenix, tucson, f); !b.contains(p) {
			t.Fatalf("box should contain %+v", p)
		}
	}
	if b.contains(domain.Coordinates{Lat: 35.1983, Lon: -111.6513}) {
		t.Fatalf("box should not contain flagstaff")
	}
}
