package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"agri-route-service/internal/domain"
	"agri-route-service/internal/platform/obs"
)

const (
	RedisGeocodeKeyPrefix = "geocode:location:"
	// Villages do not move; the TTL only bounds stale manual fixes and provider drift.
	RedisGeocodeTTL = 30 * 24 * time.Hour
)

// RedisGeocodeCache stores geocode results as JSON values under a key prefix.
type RedisGeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGeocodeCache connects to addr and verifies the connection.
func NewRedisGeocodeCache(ctx context.Context, addr string) (*RedisGeocodeCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis geocode cache: connect %s: %w", addr, err)
	}

	return &RedisGeocodeCache{client: client, ttl: RedisGeocodeTTL}, nil
}

func (c *RedisGeocodeCache) Close() error { return c.client.Close() }

func redisKey(locationKey string) string { return RedisGeocodeKeyPrefix + locationKey }

func (c *RedisGeocodeCache) GetMany(ctx context.Context, keys []string) (_ map[string]domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "geocode.cache.redis.GetMany")(&err)

	uniq := uniqueKeys(keys)
	if len(uniq) == 0 {
		return map[string]domain.GeocodeResult{}, nil
	}

	rkeys := make([]string, len(uniq))
	for i, k := range uniq {
		rkeys[i] = redisKey(k)
	}

	vals, err := c.client.MGet(ctx, rkeys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: redis mget: %w", err)
	}

	out := make(map[string]domain.GeocodeResult, len(uniq))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // missing key
		}
		var r domain.GeocodeResult
		if err := json.Unmarshal([]byte(s), &r); err != nil {
			return nil, fmt.Errorf("get geocode cache: decode %q: %w", uniq[i], err)
		}
		out[uniq[i]] = r
	}
	return out, nil
}

func (c *RedisGeocodeCache) PutMany(ctx context.Context, results map[string]domain.GeocodeResult) (err error) {
	defer obs.Time(ctx, "geocode.cache.redis.PutMany")(&err)

	if len(results) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for key, r := range results {
		if key == "" {
			return errors.New("insert geocode cache: empty location key")
		}
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("insert geocode cache key=%q: %w", key, err)
		}
		pipe.Set(ctx, redisKey(key), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert geocode cache: redis pipeline: %w", err)
	}
	return nil
}
