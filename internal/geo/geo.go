// Package geo holds the small amount of spherical geometry the planner needs:
// great-circle distance, point-to-segment distance, and interpolation along a
// straight corridor.
package geo

import (
	"hos-route-service/internal/domain"
	"math"
)

const EarthRadiusMiles = 3958.8

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// HaversineMiles returns the great-circle distance between two points.
func HaversineMiles(a, b domain.Coordinates) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMiles * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Interpolate returns the point a fraction f of the way from a to b.
// f is clamped to [0, 1]. Corridors are short enough that a linear blend of
// lat/lon is within tolerance for stop placement.
func Interpolate(a, b domain.Coordinates, f float64) domain.Coordinates {
	f = math.Max(0, math.Min(1, f))
	return domain.Coordinates{
		Lat: a.Lat + (b.Lat-a.Lat)*f,
		Lon: a.Lon + (b.Lon-a.Lon)*f,
	}
}

// project maps p onto a local equirectangular plane centred on the segment
// midpoint, in miles.
func project(p, origin domain.Coordinates, cosLat float64) (x, y float64) {
	x = radians(p.Lon-origin.Lon) * cosLat * EarthRadiusMiles
	y = radians(p.Lat-origin.Lat) * EarthRadiusMiles
	return x, y
}

// PointToSegment returns the perpendicular distance in miles from p to the
// segment a-b, and the distance along a-b of the closest point.
//
// When the projection falls outside the segment the nearest endpoint is used,
// so a point "behind" a has along = 0.
func PointToSegment(p, a, b domain.Coordinates) (crossMiles, alongMiles float64) {
	mid := Interpolate(a, b, 0.5)
	cosLat := math.Cos(radians(mid.Lat))

	ax, ay := project(a, mid, cosLat)
	bx, by := project(b, mid, cosLat)
	px, py := project(p, mid, cosLat)

	dx, dy := bx-ax, by-ay
	segLen2 := dx*dx + dy*dy
	if segLen2 == 0 {
		return HaversineMiles(p, a), 0
	}

	t := ((px-ax)*dx + (py-ay)*dy) / segLen2
	t = math.Max(0, math.Min(1, t))

	closest := Interpolate(a, b, t)
	return HaversineMiles(p, closest), t * HaversineMiles(a, b)
}

// RoadEstimate converts a great-circle distance into an approximate road
// distance and drive time using a curvature factor and an average speed.
func RoadEstimate(a, b domain.Coordinates, roadFactor, avgSpeedMph float64) (miles, hours float64) {
	miles = HaversineMiles(a, b) * roadFactor
	if avgSpeedMph <= 0 {
		return miles, 0
	}
	return miles, miles / avgSpeedMph
}
