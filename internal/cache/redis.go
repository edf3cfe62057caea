package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/metrics"
	"review-sentiment/internal/models"
)

// Redis stores entries as JSON so several API replicas share one cache. Keys
// carry a TTL for cleanup, and reads still check the stored creation time.
type Redis struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	clock  clockwork.Clock
	logger logger.Logger
}

func NewRedis(client redis.Cmdable, prefix string, ttl time.Duration, clock clockwork.Clock, log logger.Logger) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    orDefaultTTL(ttl),
		clock:  orRealClock(clock),
		logger: log,
	}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

// Get treats redis errors and undecodable entries as misses.
func (r *Redis) Get(ctx context.Context, key string) (models.AnalysisResponse, bool) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
			r.logger.Warn("cache read failed", map[string]interface{}{
				"key":   key,
				"error": err,
			})
		}
		return models.AnalysisResponse{}, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		r.logger.Warn("cache entry undecodable", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return models.AnalysisResponse{}, false
	}

	if !fresh(r.clock, entry, r.ttl) {
		metrics.CacheLookups.WithLabelValues("redis", "expired").Inc()
		return models.AnalysisResponse{}, false
	}
	metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	return entry.Value, true
}

func (r *Redis) Put(ctx context.Context, key string, value models.AnalysisResponse) error {
	data, err := json.Marshal(models.CacheEntry{CreatedAt: r.clock.Now().UTC(), Value: value})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache write %q: %w", key, err)
	}
	return nil
}
