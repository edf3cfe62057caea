// Package analysis orchestrates a sentiment analysis: cache lookup, app
// resolution, review retrieval, batch classification and aggregation.
package analysis

import (
	"context"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"review-sentiment/internal/cache"
	"review-sentiment/internal/catalog"
	"review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/metrics"
	"review-sentiment/internal/models"
	"review-sentiment/internal/sentiment"
)

const tracerName = "review-sentiment/analysis"

// AppResolver maps a free-text name to a catalog identifier.
type AppResolver interface {
	Resolve(ctx context.Context, appName string) (string, error)
}

// ReviewFetcher retrieves the newest reviews of an app.
type ReviewFetcher interface {
	FetchReviews(ctx context.Context, appID string, count int) ([]models.RawReview, error)
}

// BatchAnalyzer scores reviews preserving their order.
type BatchAnalyzer interface {
	Analyze(ctx context.Context, reviews []models.RawReview) ([]models.ReviewSentiment, error)
}

// Recorder receives one observation per uncached analysis.
type Recorder interface {
	RecordAnalysis(ctx context.Context, duration time.Duration, status string, reviews int)
}

type Dependencies struct {
	Cache    cache.Cache
	Resolver AppResolver
	Searcher catalog.Searcher
	Fetcher  ReviewFetcher
	Analyzer BatchAnalyzer
	Recorder Recorder
	Tracer   trace.Tracer
}

type Options struct {
	ReviewCount            int
	SampleSize             int
	MinSearchQueryLength   int
	DedupeConcurrentMisses bool
}

func (o Options) withDefaults() Options {
	if o.ReviewCount <= 0 {
		o.ReviewCount = 100
	}
	if o.SampleSize <= 0 {
		o.SampleSize = 5
	}
	if o.MinSearchQueryLength <= 0 {
		o.MinSearchQueryLength = 2
	}
	return o
}

type Service struct {
	deps   Dependencies
	opts   Options
	group  singleflight.Group
	logger logger.Logger
}

func NewService(deps Dependencies, opts Options, log logger.Logger) *Service {
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}
	return &Service{
		deps:   deps,
		opts:   opts.withDefaults(),
		logger: log.With(map[string]interface{}{"component": "analysis"}),
	}
}

// Analyze returns the aggregate sentiment of the newest reviews of appName.
// Cached results are returned verbatim.
func (s *Service) Analyze(ctx context.Context, appName string) (*models.AnalysisResponse, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "analysis.Analyze",
		trace.WithAttributes(attribute.String("app.name", appName)))
	defer span.End()

	if cached, ok := s.deps.Cache.Get(ctx, appName); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		metrics.AnalysesTotal.WithLabelValues("cache_hit").Inc()
		return &cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	var (
		resp *models.AnalysisResponse
		err  error
	)
	if s.opts.DedupeConcurrentMisses {
		var v interface{}
		var shared bool
		v, err, shared = s.group.Do(appName, func() (interface{}, error) {
			return s.compute(context.WithoutCancel(ctx), appName)
		})
		span.SetAttributes(attribute.Bool("singleflight.shared", shared))
		if err == nil {
			result := *v.(*models.AnalysisResponse)
			resp = &result
		}
	} else {
		resp, err = s.compute(ctx, appName)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.As(err).Code))
		return nil, err
	}
	return resp, nil
}

func (s *Service) compute(ctx context.Context, appName string) (*models.AnalysisResponse, error) {
	start := time.Now()

	resp, err := s.run(ctx, appName)

	status := outcome(err)
	metrics.AnalysesTotal.WithLabelValues(status).Inc()
	metrics.AnalysisDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if s.deps.Recorder != nil {
		reviews := 0
		if resp != nil {
			reviews = resp.ReviewsAnalyzed
		}
		s.deps.Recorder.RecordAnalysis(ctx, time.Since(start), status, reviews)
	}
	return resp, err
}

func (s *Service) run(ctx context.Context, appName string) (*models.AnalysisResponse, error) {
	appID, err := s.resolve(ctx, appName)
	if err != nil {
		return nil, err
	}

	reviews, err := s.fetch(ctx, appID)
	if err != nil {
		return nil, err
	}

	// A dispatched batch runs to completion even if the caller goes away.
	results, err := s.analyzeBatch(context.WithoutCancel(ctx), reviews)
	if err != nil {
		return nil, err
	}

	resp := sentiment.Aggregate(results, s.opts.SampleSize)

	if err := s.deps.Cache.Put(ctx, appName, resp); err != nil {
		s.logger.Warn("failed to store analysis in cache", map[string]interface{}{
			"appName": appName,
			"error":   err,
		})
	}

	s.logger.Info("analysis completed", map[string]interface{}{
		"appName":          appName,
		"appId":            appID,
		"reviewsAnalyzed":  resp.ReviewsAnalyzed,
		"averageSentiment": resp.AverageSentiment,
	})
	return &resp, nil
}

func (s *Service) resolve(ctx context.Context, appName string) (string, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "catalog.Resolve")
	defer span.End()

	appID, err := s.deps.Resolver.Resolve(ctx, appName)
	if err != nil {
		endWithError(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("app.id", appID))
	return appID, nil
}

func (s *Service) fetch(ctx context.Context, appID string) ([]models.RawReview, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "catalog.FetchReviews",
		trace.WithAttributes(attribute.String("app.id", appID), attribute.Int("review.limit", s.opts.ReviewCount)))
	defer span.End()

	reviews, err := s.deps.Fetcher.FetchReviews(ctx, appID, s.opts.ReviewCount)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeFetchFailed) {
			err = errors.NewFetchFailedError(appID, err)
		}
		endWithError(span, err)
		return nil, err
	}
	if len(reviews) == 0 {
		err := errors.NewNoReviewsError(appID)
		endWithError(span, err)
		return nil, err
	}
	if len(reviews) > s.opts.ReviewCount {
		reviews = reviews[:s.opts.ReviewCount]
	}
	span.SetAttributes(attribute.Int("review.count", len(reviews)))
	return reviews, nil
}

func (s *Service) analyzeBatch(ctx context.Context, reviews []models.RawReview) ([]models.ReviewSentiment, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "sentiment.AnalyzeBatch",
		trace.WithAttributes(attribute.Int("review.count", len(reviews))))
	defer span.End()

	results, err := s.deps.Analyzer.Analyze(ctx, reviews)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeInfrastructureFailure) {
			err = errors.NewInfrastructureError("batch_analyzer", err)
		}
		endWithError(span, err)
		return nil, err
	}
	return results, nil
}

// SearchApps lists catalog matches for query. Queries shorter than the
// configured minimum return an empty list without calling the catalog.
func (s *Service) SearchApps(ctx context.Context, query string) ([]models.AppInfo, error) {
	if utf8.RuneCountInString(query) < s.opts.MinSearchQueryLength {
		return []models.AppInfo{}, nil
	}

	ctx, span := s.deps.Tracer.Start(ctx, "analysis.SearchApps",
		trace.WithAttributes(attribute.String("search.query", query)))
	defer span.End()

	results, err := s.deps.Searcher.Search(ctx, query)
	if err != nil {
		if !errors.HasCode(err, errors.ErrCodeSearchFailed) {
			err = errors.NewSearchFailedError(query, err)
		}
		endWithError(span, err)
		return nil, err
	}

	apps := make([]models.AppInfo, len(results))
	for i, r := range results {
		apps[i] = models.AppInfo{AppID: r.AppID, Title: r.Title}
	}
	span.SetAttributes(attribute.Int("search.results", len(apps)))
	return apps, nil
}

func endWithError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(errors.As(err).Code))
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if errors.IsNotFound(err) {
		return "not_found"
	}
	switch errors.GetErrorCategory(errors.As(err).Code) {
	case "UPSTREAM":
		return "upstream_error"
	case "INFRASTRUCTURE":
		return "infrastructure_error"
	default:
		return "error"
	}
}
