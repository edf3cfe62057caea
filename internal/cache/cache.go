// Package cache memoizes analysis results for a fixed time-to-live.
//
// Entries are keyed by the app name exactly as submitted. An entry is served
// while its age is strictly below the TTL; expired entries are masked on read
// rather than purged.
package cache

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"review-sentiment/internal/models"
)

// Cache is the result cache contract shared by every backend.
type Cache interface {
	Get(ctx context.Context, key string) (models.AnalysisResponse, bool)
	Put(ctx context.Context, key string, value models.AnalysisResponse) error
}

const DefaultTTL = 3 * time.Minute

func fresh(clock clockwork.Clock, entry models.CacheEntry, ttl time.Duration) bool {
	return clock.Since(entry.CreatedAt) < ttl
}

func orRealClock(clock clockwork.Clock) clockwork.Clock {
	if clock == nil {
		return clockwork.NewRealClock()
	}
	return clock
}

func orDefaultTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
