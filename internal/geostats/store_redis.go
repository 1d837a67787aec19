package geostats

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"parareg/pkg/platform/sentinel"
)

var incrementDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "parareg_geostat_redis_increment_duration_ms",
	Help:    "Latency of Redis geo stat increments in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const regionKeyPrefix = "geostats:region:"

// incrementScript bumps the count and advances last_updated, never rewinding
// it, in one atomic server-side step.
var incrementScript = redis.NewScript(`
	redis.call('HINCRBY', KEYS[1], 'total_cases', 1)
	local cur = tonumber(redis.call('HGET', KEYS[1], 'last_updated') or '0')
	local obs = tonumber(ARGV[1])
	if obs > cur then
		redis.call('HSET', KEYS[1], 'last_updated', obs)
	end
	return 1
`)

// RedisStore shares aggregates across instances through a Redis hash per
// region.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, region string, observedAt uint64) error {
	start := time.Now()
	defer func() {
		incrementDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := regionKeyPrefix + region
	if err := incrementScript.Run(ctx, s.client, []string{key}, observedAt).Err(); err != nil {
		return fmt.Errorf("increment geo stat: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, region string) (*GeoStat, error) {
	fields, err := s.client.HGetAll(ctx, regionKeyPrefix+region).Result()
	if err != nil {
		return nil, fmt.Errorf("get geo stat: %w", err)
	}
	if len(fields) == 0 {
		return nil, sentinel.ErrNotFound
	}

	stat := &GeoStat{Region: region}
	if v, ok := fields["total_cases"]; ok {
		if stat.TotalCases, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("parse total_cases: %w", err)
		}
	}
	if v, ok := fields["last_updated"]; ok {
		if stat.LastUpdated, err = strconv.ParseUint(v, 10, 64); err != nil {
			return nil, fmt.Errorf("parse last_updated: %w", err)
		}
	}
	return stat, nil
}
