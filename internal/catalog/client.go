// Package catalog talks to the app catalog collaborator and resolves free-text
// app names to catalog identifiers.
package catalog

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"review-sentiment/internal/common/config"
	"review-sentiment/internal/common/errors"
	commonhttp "review-sentiment/internal/common/http"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/metrics"
	"review-sentiment/internal/models"
)

// HTTPClient calls a catalog scraper service over HTTP. Transient failures are
// retried with exponential backoff and a circuit breaker stops hammering a
// catalog that keeps failing.
type HTTPClient struct {
	client     *commonhttp.Client
	baseURL    string
	language   string
	country    string
	maxRetries int
	baseDelay  time.Duration
	breaker    *gobreaker.CircuitBreaker
	logger     logger.Logger
}

func NewHTTPClient(cfg config.CatalogConfig, log logger.Logger) *HTTPClient {
	maxFailures := cfg.Breaker.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	openInterval := config.GetDuration(cfg.Breaker.OpenInterval)
	if openInterval <= 0 {
		openInterval = 30 * time.Second
	}

	c := &HTTPClient{
		client:     commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		language:   cfg.Language,
		country:    cfg.Country,
		maxRetries: cfg.MaxRetries,
		baseDelay:  100 * time.Millisecond,
		logger:     log.With(map[string]interface{}{"component": "catalog"}),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     openInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return c
}

// Search queries the catalog for apps matching query, in catalog order.
func (c *HTTPClient) Search(ctx context.Context, query string) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	c.setLocale(params)

	body, err := c.get(ctx, "search", c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, errors.NewSearchFailedError(query, err)
	}

	var results []models.SearchResult
	if err := json.Unmarshal(body, &results); err != nil {
		metrics.CatalogRequests.WithLabelValues("search", "decode_error").Inc()
		return nil, errors.NewSearchFailedError(query, fmt.Errorf("decode search results: %w", err))
	}
	return results, nil
}

// FetchReviews returns up to count of the newest reviews for appID.
func (c *HTTPClient) FetchReviews(ctx context.Context, appID string, count int) ([]models.RawReview, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("sort", "newest")
	c.setLocale(params)

	endpoint := fmt.Sprintf("%s/apps/%s/reviews?%s", c.baseURL, url.PathEscape(appID), params.Encode())
	body, err := c.get(ctx, "reviews", endpoint)
	if err != nil {
		return nil, errors.NewFetchFailedError(appID, err)
	}

	var reviews []models.RawReview
	if err := json.Unmarshal(body, &reviews); err != nil {
		metrics.CatalogRequests.WithLabelValues("reviews", "decode_error").Inc()
		return nil, errors.NewFetchFailedError(appID, fmt.Errorf("decode reviews: %w", err))
	}
	if count >= 0 && len(reviews) > count {
		reviews = reviews[:count]
	}
	return reviews, nil
}

func (c *HTTPClient) setLocale(params url.Values) {
	if c.language != "" {
		params.Set("lang", c.language)
	}
	if c.country != "" {
		params.Set("country", c.country)
	}
}

func (c *HTTPClient) get(ctx context.Context, operation, endpoint string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.client.GetJSON(ctx, endpoint)
		})
		if err == nil {
			metrics.CatalogRequests.WithLabelValues(operation, "success").Inc()
			return result.([]byte), nil
		}

		lastErr = err
		metrics.CatalogRequests.WithLabelValues(operation, outcomeLabel(err)).Inc()
		if !isTransient(err) || ctx.Err() != nil {
			break
		}

		c.logger.Warn("catalog request failed, retrying", map[string]interface{}{
			"operation":  operation,
			"attempt":    attempt + 1,
			"maxRetries": c.maxRetries,
			"error":      err,
		})
	}

	return nil, lastErr
}

// isTransient reports whether err is a transport failure or a retryable status.
func isTransient(err error) bool {
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *commonhttp.StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

func outcomeLabel(err error) string {
	var statusErr *commonhttp.StatusError
	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case stderrors.As(err, &statusErr):
		return "status_" + strconv.Itoa(statusErr.StatusCode)
	default:
		return "transport_error"
	}
}
