package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hos-route-service/internal/platform/obs"
	"hos-route-service/internal/ports"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisDistancePrefix = "hosroute:dist:"

type redisEstimate struct {
	Miles float64 `json:"miles"`
	Hours float64 `json:"hours"`
}

// RedisDistanceCache keeps one hash per origin, with a field per destination.
// The whole hash expires ttl after its last write.
type RedisDistanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDistanceCache(client *redis.Client, ttl time.Duration) *RedisDistanceCache {
	return &RedisDistanceCache{client: client, ttl: ttl}
}

func (c *RedisDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.RouteEstimate, err error) {
	defer obs.Time(ctx, "distance.redis.GetMany")(&err)

	if c.client == nil {
		return nil, errors.New("redis distance cache: client is nil")
	}
	if origin == "" {
		return nil, errors.New("get redis distance cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.RouteEstimate{}, nil
	}

	vals, err := c.client.HMGet(ctx, redisDistancePrefix+origin, uniq...).Result()
	if err != nil {
		return nil, fmt.Errorf("get redis distance cache: hmget: %w", err)
	}

	out := make(map[string]ports.RouteEstimate, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var e redisEstimate
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			log.Printf("op=distance.redis.GetMany origin=%s dest=%s decode err=%v", origin, uniq[i], err)
			continue
		}
		out[uniq[i]] = ports.RouteEstimate{
			DistanceMiles:  e.Miles,
			DriveTimeHours: e.Hours,
			Source:         ports.SourceCache,
		}
	}
	return out, nil
}

func (c *RedisDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.RouteEstimate,
) (err error) {
	defer obs.Time(ctx, "distance.redis.PutMany")(&err)

	if c.client == nil {
		return errors.New("redis distance cache: client is nil")
	}
	if origin == "" {
		return errors.New("put redis distance cache: origin must not be empty")
	}

	fields := make(map[string]any, len(results))
	for dest, r := range results {
		if dest == "" {
			return errors.New("put redis distance cache: empty destination key")
		}
		if r.Source == ports.SourceEstimate {
			continue
		}
		data, err := json.Marshal(redisEstimate{Miles: r.DistanceMiles, Hours: r.DriveTimeHours})
		if err != nil {
			return fmt.Errorf("put redis distance cache: marshal dest=%q: %w", dest, err)
		}
		fields[dest] = string(data)
	}
	if len(fields) == 0 {
		return nil
	}

	key := redisDistancePrefix + origin
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if c.ttl > 0 {
		pipe.Expire(ctx, key, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put redis distance cache: exec: %w", err)
	}
	return nil
}
