package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"time"
)

// SQLDistanceCache keeps road distances between rounded coordinate keys in
// the distance_cache table. Rows older than TTL are ignored on read and
// removed by Prune; a zero TTL keeps rows forever.
type SQLDistanceCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLDistanceCache(db *sql.DB, ttl time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, TTL: ttl}
}

// cutoff is the oldest cached_at still served. Zero TTL maps to the epoch.
func (s *SQLDistanceCache) cutoff() time.Time {
	if s.TTL <= 0 {
		return time.Unix(0, 0).UTC()
	}
	return time.Now().Add(-s.TTL).UTC()
}

func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.RouteEstimate, err error) {
	defer obs.Time(ctx, "distance.cache.pg.get")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("distance cache get: empty origin key")
	}
	wanted := uniqueKeys(destinations)
	hits := make(map[string]ports.RouteEstimate, len(wanted))
	if len(wanted) == 0 {
		return hits, nil
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT destination, distance_miles, drive_time_hours
		FROM distance_cache
		WHERE origin = $1 AND destination = ANY($2::text[]) AND cached_at >= $3`,
		origin, wanted, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("distance cache get origin=%q: %w", origin, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			dest string
			est  = ports.RouteEstimate{Source: ports.SourceCache}
		)
		if err := rows.Scan(&dest, &est.DistanceMiles, &est.DriveTimeHours); err != nil {
			return nil, fmt.Errorf("distance cache get: scan: %w", err)
		}
		hits[dest] = est
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distance cache get: rows: %w", err)
	}
	return hits, nil
}

// PutMany upserts every routed answer for origin in a single statement.
// Great-circle estimates are skipped so a later routed lookup can replace them.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.RouteEstimate,
) (err error) {
	defer obs.Time(ctx, "distance.cache.pg.put")(&err)

	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return errors.New("distance cache put: empty origin key")
	}

	var (
		dests []string
		miles []float64
		hours []float64
	)
	for dest, est := range results {
		if dest == "" {
			return errors.New("distance cache put: empty destination key")
		}
		if est.Source == ports.SourceEstimate {
			continue
		}
		dests = append(dests, dest)
		miles = append(miles, est.DistanceMiles)
		hours = append(hours, est.DriveTimeHours)
	}
	if len(dests) == 0 {
		return nil
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO distance_cache (origin, destination, distance_miles, drive_time_hours, cached_at)
		SELECT $1, d, m, h, now()
		FROM unnest($2::text[], $3::float8[], $4::float8[]) AS u(d, m, h)
		ON CONFLICT (origin, destination) DO UPDATE
		SET distance_miles = EXCLUDED.distance_miles,
			drive_time_hours = EXCLUDED.drive_time_hours,
			cached_at = EXCLUDED.cached_at`,
		origin, dests, miles, hours)
	if err != nil {
		return fmt.Errorf("distance cache put origin=%q rows=%d: %w", origin, len(dests), err)
	}
	return nil
}

// Prune deletes rows that GetMany would no longer serve and reports how many.
func (s *SQLDistanceCache) Prune(ctx context.Context) (n int64, err error) {
	defer obs.Time(ctx, "distance.cache.pg.prune")(&err)

	if s.TTL <= 0 {
		return 0, nil
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM distance_cache WHERE cached_at < $1`, s.cutoff())
	if err != nil {
		return 0, fmt.Errorf("distance cache prune: %w", err)
	}
	return res.RowsAffected()
}
