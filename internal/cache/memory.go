package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"review-sentiment/internal/common/metrics"
	"review-sentiment/internal/models"
)

// Memory is an unbounded in-process cache.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]models.CacheEntry
	ttl     time.Duration
	clock   clockwork.Clock
}

// NewMemory creates an in-process cache. A nil clock uses wall time.
func NewMemory(ttl time.Duration, clock clockwork.Clock) *Memory {
	return &Memory{
		entries: make(map[string]models.CacheEntry),
		ttl:     orDefaultTTL(ttl),
		clock:   orRealClock(clock),
	}
}

func (m *Memory) Get(_ context.Context, key string) (models.AnalysisResponse, bool) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		metrics.CacheLookups.WithLabelValues("memory", "miss").Inc()
		return models.AnalysisResponse{}, false
	}
	if !fresh(m.clock, entry, m.ttl) {
		metrics.CacheLookups.WithLabelValues("memory", "expired").Inc()
		return models.AnalysisResponse{}, false
	}
	metrics.CacheLookups.WithLabelValues("memory", "hit").Inc()
	return cloneResponse(entry.Value), true
}

func (m *Memory) Put(_ context.Context, key string, value models.AnalysisResponse) error {
	m.mu.Lock()
	m.entries[key] = models.CacheEntry{CreatedAt: m.clock.Now(), Value: cloneResponse(value)}
	m.mu.Unlock()
	return nil
}

// cloneResponse detaches the sample slice so callers never share it with
// a stored entry.
func cloneResponse(r models.AnalysisResponse) models.AnalysisResponse {
	if r.SampleReviews != nil {
		r.SampleReviews = append([]models.ReviewSentiment(nil), r.SampleReviews...)
	}
	return r
}

// Len reports the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
