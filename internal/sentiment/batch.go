package sentiment

import (
	"context"

	"golang.org/x/sync/errgroup"

	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/models"
)

// Scorer scores one text. Implementations never fail.
type Scorer interface {
	Score(ctx context.Context, text string) float64
}

// Permits is a counting semaphore shared across batches.
type Permits interface {
	Acquire(ctx context.Context) error
	Release()
}

// Gate admits call initiations at a bounded rate.
type Gate interface {
	Wait(ctx context.Context) error
}

// BatchAnalyzer classifies reviews concurrently under the shared governor and
// rate gate, returning results in input order.
type BatchAnalyzer struct {
	scorer   Scorer
	governor Permits
	gate     Gate
	logger   logger.Logger
}

func NewBatchAnalyzer(scorer Scorer, governor Permits, gate Gate, log logger.Logger) *BatchAnalyzer {
	return &BatchAnalyzer{
		scorer:   scorer,
		governor: governor,
		gate:     gate,
		logger:   log,
	}
}

// Analyze returns one ReviewSentiment per review, in the same order. It fails
// only when the governor or the rate gate cannot be used.
func (b *BatchAnalyzer) Analyze(ctx context.Context, reviews []models.RawReview) ([]models.ReviewSentiment, error) {
	results := make([]models.ReviewSentiment, len(reviews))
	if len(reviews) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, review := range reviews {
		i, review := i, review
		g.Go(func() error {
			score, err := b.scoreOne(gctx, review.Content)
			if err != nil {
				return err
			}
			results[i] = models.ReviewSentiment{
				ReviewText:     review.Content,
				SentimentScore: score,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		b.logger.Error("batch analysis aborted", map[string]interface{}{
			"reviews": len(reviews),
			"error":   err,
		})
		return nil, err
	}
	return results, nil
}

func (b *BatchAnalyzer) scoreOne(ctx context.Context, text string) (float64, error) {
	if err := b.governor.Acquire(ctx); err != nil {
		return 0, err
	}
	defer b.governor.Release()

	if err := b.gate.Wait(ctx); err != nil {
		return 0, err
	}
	return b.scorer.Score(ctx, text), nil
}
