package weather

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"io"
	"net/http"
	"strings"
	"time"
)

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type routeRequest struct {
	Waypoints     []point   `json:"waypoints"`
	DepartureTime time.Time `json:"departure_time"`
}

type condition struct {
	Lat                 float64 `json:"lat"`
	Lon                 float64 `json:"lon"`
	Severity            string  `json:"severity"`
	DriveTimeMultiplier float64 `json:"drive_time_multiplier"`
	Description         string  `json:"description,omitempty"`
}

// HTTPProvider asks a weather service for conditions along a list of
// waypoints.
type HTTPProvider struct {
	session *http.Client
	url     string
}

func NewHTTPProvider(url string, timeout time.Duration) (*HTTPProvider, error) {
	if url == "" {
		return nil, errors.New("weather url is empty")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProvider{session: &http.Client{Timeout: timeout}, url: url}, nil
}

func (h *HTTPProvider) GetWeatherAlongRoute(
	ctx context.Context,
	waypoints []domain.Coordinates,
	departure time.Time,
) (_ []ports.WeatherCondition, err error) {
	defer obs.Time(ctx, "weather.GetWeatherAlongRoute")(&err)

	if len(waypoints) == 0 {
		return nil, nil
	}

	body := routeRequest{DepartureTime: departure.UTC()}
	for _, w := range waypoints {
		body.Waypoints = append(body.Waypoints, point{Lat: w.Lat, Lon: w.Lon})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal weather request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create weather request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("weather request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var decoded []condition
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	out := make([]ports.WeatherCondition, 0, len(decoded))
	for _, c := range decoded {
		mult := c.DriveTimeMultiplier
		if mult < 1 {
			mult = 1
		}
		sev := strings.ToLower(c.Severity)
		if sev == "" {
			sev = ports.SeverityNone
		}
		out = append(out, ports.WeatherCondition{
			Location:            domain.Coordinates{Lat: c.Lat, Lon: c.Lon},
			Severity:            sev,
			DriveTimeMultiplier: mult,
			Description:         c.Description,
		})
	}
	return out, nil
}

// None reports clear conditions everywhere.
type None struct{}

func (None) GetWeatherAlongRoute(context.Context, []domain.Coordinates, time.Time) ([]ports.WeatherCondition, error) {
	return nil, nil
}
