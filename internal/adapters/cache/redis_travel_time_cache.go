package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"meeting-point-service/internal/domain"
	"meeting-point-service/internal/platform/metrics"
	"meeting-point-service/internal/platform/obs"
	"meeting-point-service/internal/ports"
)

// DefaultTravelTimeTTL bounds how long a cached duration may serve
// resolutions before the provider is asked again. Travel times drift with
// traffic and schedules; a day keeps repeat searches cheap without serving
// weeks-old estimates.
const DefaultTravelTimeTTL = 24 * time.Hour

// RedisTravelTimeCache is a Redis-backed cache for directed
// origin->destination travel durations. Values are stored as float strings
// under "tt:<mode>:<pair>" keys and expire after TTL.
type RedisTravelTimeCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisTravelTimeCache(client *redis.Client, ttl time.Duration) *RedisTravelTimeCache {
	if ttl <= 0 {
		ttl = DefaultTravelTimeTTL
	}
	return &RedisTravelTimeCache{Client: client, TTL: ttl}
}

func redisKey(mode domain.TransportMode, p ports.TravelPair) string {
	return "tt:" + mode.String() + ":" + pairKey(p)
}

// Fetch cached durations for the given pairs in one MGET.
func (r *RedisTravelTimeCache) GetMany(
	ctx context.Context,
	pairs []ports.TravelPair,
	mode domain.TransportMode,
) (_ map[ports.TravelPair]float64, err error) {
	defer obs.Time(ctx, "traveltime.cache.GetMany")(&err)

	if r.Client == nil {
		return nil, errors.New("travel time cache: redis client is nil")
	}

	if len(pairs) == 0 {
		return map[ports.TravelPair]float64{}, nil
	}

	seen := make(map[ports.TravelPair]struct{}, len(pairs))
	uniq := make([]ports.TravelPair, 0, len(pairs))
	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		uniq = append(uniq, p)
		keys = append(keys, redisKey(mode, p))
	}

	vals, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get travel time cache: redis mget: %w", err)
	}

	out := make(map[ports.TravelPair]float64, len(uniq))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		seconds, perr := strconv.ParseFloat(s, 64)
		if perr != nil {
			// An unreadable entry counts as a miss and gets rewritten on
			// the next store.
			continue
		}
		out[uniq[i]] = seconds
	}

	metrics.CacheHits.WithLabelValues("redis").Add(float64(len(out)))
	metrics.CacheMisses.WithLabelValues("redis").Add(float64(len(uniq) - len(out)))

	return out, nil
}

// Store durations for many pairs at once through a single pipeline.
func (r *RedisTravelTimeCache) PutMany(
	ctx context.Context,
	durations map[ports.TravelPair]float64,
	mode domain.TransportMode,
) error {
	if r.Client == nil {
		return errors.New("travel time cache: redis client is nil")
	}

	if len(durations) == 0 {
		return nil
	}

	pipe := r.Client.Pipeline()
	for p, seconds := range durations {
		if seconds < 0 {
			return fmt.Errorf("insert travel time cache: negative duration %f for %q", seconds, pairKey(p))
		}
		pipe.Set(ctx, redisKey(mode, p), strconv.FormatFloat(seconds, 'f', -1, 64), r.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert travel time cache: redis pipeline: %w", err)
	}

	return nil
}
