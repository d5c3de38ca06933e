package ports

import (
	"context"
	"hos-route-service/internal/domain"
	"time"
)

// Weather severities. Only severe and extreme conditions slow a leg down.
const (
	SeverityNone     = "none"
	SeverityMinor    = "minor"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
	SeverityExtreme  = "extreme"
)

type WeatherCondition struct {
	Location            domain.Coordinates
	Severity            string
	DriveTimeMultiplier float64
	Description         string
}

// Contract for weather along a corridor.
type WeatherProvider interface {
	GetWeatherAlongRoute(ctx context.Context, waypoints []domain.Coordinates, departure time.Time) ([]WeatherCondition, error)
}
