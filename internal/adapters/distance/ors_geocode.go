package distance

import (
	"context"
	"fmt"
	"hos-route-service/internal/adapters/cache"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
	"log"
	"net/url"
)

// GeocodeCache is the lookup side ORSGeocoder needs from a geocode cache.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// ORSGeocoder resolves addresses with OpenRouteService (/geocode/search),
// consulting the cache first.
type ORSGeocoder struct {
	client *orsClient
	cache  GeocodeCache
}

func NewORSGeocoder(apiKey, baseURL string, cache GeocodeCache) (*ORSGeocoder, error) {
	client, err := newORSClient(apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	return &ORSGeocoder{client: client, cache: cache}, nil
}

func (g *ORSGeocoder) Geocode(ctx context.Context, address string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Geocode")(&err)

	norm := cache.NormalizeAddress(address)
	if norm == "" {
		return domain.Coordinates{}, fmt.Errorf("geocode: address must be non-empty")
	}

	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{norm})
		if err != nil {
			log.Printf("req_id=%s op=ors.Geocode geocode cache read failed: %v", obs.RequestID(ctx), err)
		} else if c, ok := hits[norm]; ok {
			return c, nil
		}
	}

	var decoded geocodeResponse
	query := url.Values{"text": {norm}, "boundary.country": {"US"}, "size": {"1"}}
	if err := g.client.getJSON(ctx, "/geocode/search", query, &decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	out := domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	if !out.Valid() {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: coordinates out of range", address)
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]domain.Coordinates{norm: out}); err != nil {
			log.Printf("req_id=%s op=ors.Geocode geocode cache write failed: %v", obs.RequestID(ctx), err)
		}
	}

	return out, nil
}
