// Package stations finds fuel stations and rest areas near a point or along a
// straight corridor between two points.
package stations

import (
	"hos-route-service/internal/domain"
	"hos-route-service/internal/geo"
	"math"
	"sort"
)

const milesPerDegreeLat = 69.0

type bbox struct {
	minLat, minLon, maxLat, maxLon float64
}

// boxAround returns a box containing every point within pad miles of the
// given points. It is a prefilter only; exact distances are checked after.
func boxAround(pad float64, pts ...domain.Coordinates) bbox {
	b := bbox{minLat: 90, minLon: 180, maxLat: -90, maxLon: -180}
	for _, p := range pts {
		b.minLat = math.Min(b.minLat, p.Lat)
		b.maxLat = math.Max(b.maxLat, p.Lat)
		b.minLon = math.Min(b.minLon, p.Lon)
		b.maxLon = math.Max(b.maxLon, p.Lon)
	}

	dLat := pad / milesPerDegreeLat
	maxAbsLat := math.Min(89, math.Max(math.Abs(b.minLat), math.Abs(b.maxLat))+dLat)
	dLon := pad / (milesPerDegreeLat * math.Cos(maxAbsLat*math.Pi/180))

	b.minLat -= dLat
	b.maxLat += dLat
	b.minLon -= dLon
	b.maxLon += dLon
	return b
}

func (b bbox) contains(p domain.Coordinates) bool {
	return p.Lat >= b.minLat && p.Lat <= b.maxLat && p.Lon >= b.minLon && p.Lon <= b.maxLon
}

// nearPoint reports the distance from p to c when it is within radius.
func nearPoint(p, c domain.Coordinates, radius float64) (float64, bool) {
	d := geo.HaversineMiles(p, c)
	return d, d <= radius
}

// inCorridor reports the perpendicular and along-track distance of c relative
// to the segment from-to when it lies within width miles of it.
func inCorridor(from, to, c domain.Coordinates, width float64) (cross, along float64, ok bool) {
	cross, along = geo.PointToSegment(c, from, to)
	return cross, along, cross <= width
}

func matchFuelNear(all []domain.FuelStation, p domain.Coordinates, radius float64) []domain.FuelCandidate {
	var out []domain.FuelCandidate
	for _, s := range all {
		if d, ok := nearPoint(p, s.Point, radius); ok {
			out = append(out, domain.FuelCandidate{Station: s, DetourMiles: d})
		}
	}
	sortFuel(out)
	return out
}

func matchFuelCorridor(all []domain.FuelStation, from, to domain.Coordinates, width float64) []domain.FuelCandidate {
	var out []domain.FuelCandidate
	for _, s := range all {
		if cross, along, ok := inCorridor(from, to, s.Point, width); ok {
			out = append(out, domain.FuelCandidate{Station: s, DetourMiles: cross, AlongMiles: along})
		}
	}
	sortFuel(out)
	return out
}

func matchRestNear(all []domain.RestArea, p domain.Coordinates, radius float64) []domain.RestCandidate {
	var out []domain.RestCandidate
	for _, a := range all {
		if d, ok := nearPoint(p, a.Point, radius); ok {
			out = append(out, domain.RestCandidate{Area: a, DetourMiles: d})
		}
	}
	sortRest(out)
	return out
}

func matchRestCorridor(all []domain.RestArea, from, to domain.Coordinates, width float64) []domain.RestCandidate {
	var out []domain.RestCandidate
	for _, a := range all {
		if cross, along, ok := inCorridor(from, to, a.Point, width); ok {
			out = append(out, domain.RestCandidate{Area: a, DetourMiles: cross, AlongMiles: along})
		}
	}
	sortRest(out)
	return out
}

// Fuel: cheapest first, then smallest detour, then id.
func sortFuel(c []domain.FuelCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].Station.PricePerGallon != c[j].Station.PricePerGallon {
			return c[i].Station.PricePerGallon < c[j].Station.PricePerGallon
		}
		if c[i].DetourMiles != c[j].DetourMiles {
			return c[i].DetourMiles < c[j].DetourMiles
		}
		return c[i].Station.ID < c[j].Station.ID
	})
}

// Rest: smallest detour, then id.
func sortRest(c []domain.RestCandidate) {
	sort.SliceStable(c, func(i, j int) bool {
		if c[i].DetourMiles != c[j].DetourMiles {
			return c[i].DetourMiles < c[j].DetourMiles
		}
		return c[i].Area.ID < c[j].Area.ID
	})
}
