package domain

import "fmt"

// Immutable geographic coordinates (latitude, longitude) in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Key returns a stable cache key rounded to roughly one meter.
func (c Coordinates) Key() string { return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon) }

// Valid reports whether the point lies within WGS84 bounds and is not the zero value.
func (c Coordinates) Valid() bool {
	if c.Lat == 0 && c.Lon == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Place is a named point on the route timeline: a customer stop, a rest area,
// a fuel station, or an intermediate point where a break was taken.
type Place struct {
	Name   string      `json:"name"`
	StopID string      `json:"stop_id,omitempty"`
	Point  Coordinates `json:"point"`
}
