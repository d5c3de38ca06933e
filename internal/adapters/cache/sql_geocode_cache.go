package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-route-service/internal/domain"
	"hos-route-service/internal/platform/obs"
	"strings"
)

// SQLGeocodeCache remembers where a free-text stop address resolved to.
// Street geography does not go stale the way road times do, so rows never expire.
type SQLGeocodeCache struct {
	DB *sql.DB
}

func NewSQLGeocodeCache(db *sql.DB) *SQLGeocodeCache {
	return &SQLGeocodeCache{DB: db}
}

// NormalizeAddress folds case and whitespace: "12 Main  St" and "12 main st"
// share one row.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// GetMany returns coordinates keyed by normalized address. Misses are absent.
func (s *SQLGeocodeCache) GetMany(ctx context.Context, addresses []string) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.pg.get")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}
	normalized := make([]string, len(addresses))
	for i, a := range addresses {
		normalized[i] = NormalizeAddress(a)
	}
	wanted := uniqueKeys(normalized)
	found := make(map[string]domain.Coordinates, len(wanted))
	if len(wanted) == 0 {
		return found, nil
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT address, lat, lon FROM geocode_cache WHERE address = ANY($1::text[])`, wanted)
	if err != nil {
		return nil, fmt.Errorf("geocode cache get %d addresses: %w", len(wanted), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			addr string
			at   domain.Coordinates
		)
		if err := rows.Scan(&addr, &at.Lat, &at.Lon); err != nil {
			return nil, fmt.Errorf("geocode cache get: scan: %w", err)
		}
		found[addr] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("geocode cache get: rows: %w", err)
	}
	return found, nil
}

// PutMany upserts resolved addresses. Any out-of-range coordinate rejects the batch.
func (s *SQLGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) (err error) {
	defer obs.Time(ctx, "geocode.cache.pg.put")(&err)

	if s.DB == nil {
		return errors.New("geocode cache: db is nil")
	}
	if len(results) == 0 {
		return nil
	}

	// Two spellings of one address collapse to a single row; the upsert
	// cannot touch the same key twice in one statement.
	byKey := make(map[string]domain.Coordinates, len(results))
	for raw, at := range results {
		addr := NormalizeAddress(raw)
		if addr == "" {
			return errors.New("geocode cache put: empty address key")
		}
		if !at.Valid() {
			return fmt.Errorf("geocode cache put: %q resolved outside lat/lon range", addr)
		}
		byKey[addr] = at
	}
	addrs := make([]string, 0, len(byKey))
	lats := make([]float64, 0, len(byKey))
	lons := make([]float64, 0, len(byKey))
	for addr, at := range byKey {
		addrs = append(addrs, addr)
		lats = append(lats, at.Lat)
		lons = append(lons, at.Lon)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO geocode_cache (address, lat, lon, resolved_at)
		SELECT a, la, lo, now()
		FROM unnest($1::text[], $2::float8[], $3::float8[]) AS u(a, la, lo)
		ON CONFLICT (address) DO UPDATE
		SET lat = EXCLUDED.lat, lon = EXCLUDED.lon, resolved_at = EXCLUDED.resolved_at`,
		addrs, lats, lons)
	if err != nil {
		return fmt.Errorf("geocode cache put rows=%d: %w", len(addrs), err)
	}
	return nil
}
