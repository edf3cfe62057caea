// Package app assembles the analysis service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"review-sentiment/internal/analysis"
	"review-sentiment/internal/api"
	"review-sentiment/internal/cache"
	"review-sentiment/internal/catalog"
	"review-sentiment/internal/common/config"
	"review-sentiment/internal/common/database"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/observability"
	"review-sentiment/internal/sentiment"
	"review-sentiment/internal/throttle"
)

// Components is a fully wired service plus the resources it owns.
type Components struct {
	Service *analysis.Service
	Checks  map[string]api.ReadinessCheck

	closers []func() error
}

// Close releases owned resources in reverse order.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// BuildOptions tunes how external resources are acquired.
type BuildOptions struct {
	ConnectRetries    int
	ConnectRetryDelay time.Duration
	Clock             clockwork.Clock
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.ConnectRetries <= 0 {
		o.ConnectRetries = 10
	}
	if o.ConnectRetryDelay <= 0 {
		o.ConnectRetryDelay = 2 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

// Build wires cache, throttles, classifier, catalog client and orchestrator.
// obs may be nil.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, obs *observability.Observability, opts BuildOptions) (*Components, error) {
	opts = opts.withDefaults()
	c := &Components{Checks: map[string]api.ReadinessCheck{}}

	resultCache, err := c.buildCache(ctx, cfg, log, opts)
	if err != nil {
		c.Close()
		return nil, err
	}

	governor, err := throttle.NewGovernor(cfg.Classification.MaxConcurrent)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("governor: %w", err)
	}
	gate, err := throttle.NewRateGate(cfg.Classification.RatePerSecond, cfg.Classification.Burst)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("rate gate: %w", err)
	}
	predictor, err := sentiment.NewPredictor(cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("sentiment provider: %w", err)
	}
	classifier := sentiment.NewClassifier(predictor, config.GetDuration(cfg.Classification.CallTimeout), log)
	batch := sentiment.NewBatchAnalyzer(classifier, governor, gate, log)

	catalogClient := catalog.NewHTTPClient(cfg.Catalog, log)

	deps := analysis.Dependencies{
		Cache:    resultCache,
		Resolver: catalog.NewResolver(catalogClient, log),
		Searcher: catalogClient,
		Fetcher:  catalogClient,
		Analyzer: batch,
	}
	if obs != nil {
		deps.Recorder = obs
		deps.Tracer = obs.Tracer()
	}

	c.Service = analysis.NewService(deps, analysis.Options{
		ReviewCount:            cfg.Analysis.ReviewCount,
		SampleSize:             cfg.Analysis.SampleSize,
		MinSearchQueryLength:   cfg.Analysis.MinSearchQueryLength,
		DedupeConcurrentMisses: cfg.Analysis.DedupeConcurrentMisses,
	}, log)

	log.Info("analysis service wired", map[string]interface{}{
		"provider":      cfg.Classification.Provider,
		"cacheBackend":  cfg.Cache.Backend,
		"maxConcurrent": governor.Size(),
		"ratePerSecond": gate.Limit(),
	})
	return c, nil
}

func (c *Components) buildCache(ctx context.Context, cfg *config.Config, log logger.Logger, opts BuildOptions) (cache.Cache, error) {
	ttl := config.GetDuration(cfg.Analysis.CacheTTL)
	if cfg.Cache.Backend != config.CacheBackendRedis {
		return cache.NewMemory(ttl, opts.Clock), nil
	}

	var rdb *database.RedisClient
	err := RetryWithBackoff(func() error {
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return err
		}
		rdb = client
		return nil
	}, opts.ConnectRetries, opts.ConnectRetryDelay, log, "Redis connection")
	if err != nil {
		return nil, err
	}

	log.Info("Redis connected successfully", map[string]interface{}{
		"address": cfg.Database.Redis.Address,
	})
	c.closers = append(c.closers, rdb.Close)
	c.Checks["redis"] = rdb.Ping
	return cache.NewRedis(rdb.Client, cfg.Cache.KeyPrefix, ttl, opts.Clock, log), nil
}

// RetryWithBackoff attempts to execute a function with exponential backoff
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
