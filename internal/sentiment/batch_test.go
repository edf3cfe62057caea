package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/models"
	"review-sentiment/internal/throttle"
)

// tableScorer returns a fixed score per text after a random delay and
// records the peak number of concurrent calls.
type tableScorer struct {
	scores   map[string]float64
	maxDelay time.Duration

	current atomic.Int64
	peak    atomic.Int64
	calls   atomic.Int64
}

func (s *tableScorer) Score(_ context.Context, text string) float64 {
	n := s.current.Add(1)
	defer s.current.Add(-1)
	s.calls.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.maxDelay > 0 {
		time.Sleep(time.Duration(rand.Int63n(int64(s.maxDelay))))
	}
	return s.scores[text]
}

type openGate struct{}

func (openGate) Wait(context.Context) error { return nil }

type brokenGate struct{}

func (brokenGate) Wait(context.Context) error {
	return apperrors.NewInfrastructureError("rate_gate", errors.New("limiter unavailable"))
}

func reviewsFor(texts ...string) []models.RawReview {
	reviews := make([]models.RawReview, len(texts))
	for i, text := range texts {
		reviews[i] = models.RawReview{Content: text}
	}
	return reviews
}

func TestBatchAnalyzer_PreservesInputOrder(t *testing.T) {
	texts := make([]string, 40)
	scores := make(map[string]float64, len(texts))
	for i := range texts {
		texts[i] = fmt.Sprintf("review-%02d", i)
		scores[texts[i]] = float64(i)/50 - 0.4
	}

	governor, err := throttle.NewGovernor(5)
	require.NoError(t, err)
	scorer := &tableScorer{scores: scores, maxDelay: 10 * time.Millisecond}
	analyzer := NewBatchAnalyzer(scorer, governor, openGate{}, logger.NewTestLogger(t))

	results, err := analyzer.Analyze(context.Background(), reviewsFor(texts...))
	require.NoError(t, err)
	require.Len(t, results, len(texts))

	for i, r := range results {
		assert.Equal(t, texts[i], r.ReviewText)
		assert.InDelta(t, scores[texts[i]], r.SentimentScore, 1e-9)
	}
}

func TestBatchAnalyzer_ConcurrencyNeverExceedsGovernor(t *testing.T) {
	governor, err := throttle.NewGovernor(5)
	require.NoError(t, err)
	scorer := &tableScorer{scores: map[string]float64{}, maxDelay: 15 * time.Millisecond}
	analyzer := NewBatchAnalyzer(scorer, governor, openGate{}, logger.NewTestLogger(t))

	texts := make([]string, 30)
	for i := range texts {
		texts[i] = fmt.Sprintf("r%d", i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := analyzer.Analyze(context.Background(), reviewsFor(texts...))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, scorer.peak.Load(), int64(5))
	assert.Equal(t, int64(90), scorer.calls.Load())
}

func TestBatchAnalyzer_RateLimitedBatchTakesTime(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	governor, err := throttle.NewGovernor(5)
	require.NoError(t, err)
	gate, err := throttle.NewRateGate(10, 1)
	require.NoError(t, err)

	texts := make([]string, 30)
	for i := range texts {
		texts[i] = fmt.Sprintf("r%d", i)
	}
	analyzer := NewBatchAnalyzer(&tableScorer{scores: map[string]float64{}}, governor, gate, logger.NewNoOpLogger())

	start := time.Now()
	results, err := analyzer.Analyze(context.Background(), reviewsFor(texts...))
	require.NoError(t, err)
	assert.Len(t, results, 30)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)
}

func TestBatchAnalyzer_FailedClassificationsScoreZero(t *testing.T) {
	governor, err := throttle.NewGovernor(2)
	require.NoError(t, err)
	classifier := NewClassifier(&stubPredictor{err: errors.New("down")}, 0, logger.NewNoOpLogger())
	analyzer := NewBatchAnalyzer(classifier, governor, openGate{}, logger.NewNoOpLogger())

	results, err := analyzer.Analyze(context.Background(), reviewsFor("a", "b", "c"))
	require.NoError(t, err)
	for _, r := range results {
		assert.Equal(t, 0.0, r.SentimentScore)
	}
}

func TestBatchAnalyzer_InfrastructureFailureFailsBatch(t *testing.T) {
	governor, err := throttle.NewGovernor(2)
	require.NoError(t, err)
	analyzer := NewBatchAnalyzer(&tableScorer{scores: map[string]float64{}}, governor, brokenGate{}, logger.NewNoOpLogger())

	results, err := analyzer.Analyze(context.Background(), reviewsFor("a", "b"))
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInfrastructureFailure))
	assert.Equal(t, 0, governor.InFlight(), "permits released")
}

func TestBatchAnalyzer_Empty(t *testing.T) {
	governor, err := throttle.NewGovernor(1)
	require.NoError(t, err)
	analyzer := NewBatchAnalyzer(&tableScorer{}, governor, openGate{}, logger.NewNoOpLogger())

	results, err := analyzer.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
