package sentiment

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
)

type stubPredictor struct {
	prediction Prediction
	err        error
	delay      time.Duration
}

func (s *stubPredictor) Predict(ctx context.Context, _ string) (Prediction, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Prediction{}, ctx.Err()
		}
	}
	return s.prediction, s.err
}

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name          string
		predictor     *stubPredictor
		expectedOK    bool
		expectedScore float64
	}{
		{
			name:          "positive maps to +confidence",
			predictor:     &stubPredictor{prediction: Prediction{Label: LabelPositive, Confidence: 0.92}},
			expectedOK:    true,
			expectedScore: 0.92,
		},
		{
			name:          "negative maps to -confidence",
			predictor:     &stubPredictor{prediction: Prediction{Label: LabelNegative, Confidence: 0.4}},
			expectedOK:    true,
			expectedScore: -0.4,
		},
		{
			name:          "unknown label counts as negative",
			predictor:     &stubPredictor{prediction: Prediction{Label: "mixed", Confidence: 0.3}},
			expectedOK:    true,
			expectedScore: -0.3,
		},
		{
			name:          "collaborator error fails",
			predictor:     &stubPredictor{err: errors.New("503 model loading")},
			expectedOK:    false,
			expectedScore: 0,
		},
		{
			name:          "confidence above one fails",
			predictor:     &stubPredictor{prediction: Prediction{Label: LabelPositive, Confidence: 1.7}},
			expectedOK:    false,
			expectedScore: 0,
		},
		{
			name:          "NaN confidence fails",
			predictor:     &stubPredictor{prediction: Prediction{Label: LabelPositive, Confidence: math.NaN()}},
			expectedOK:    false,
			expectedScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClassifier(tt.predictor, 0, logger.NewTestLogger(t))

			outcome := c.Classify(context.Background(), "some review")
			assert.Equal(t, tt.expectedOK, outcome.Succeeded())
			assert.InDelta(t, tt.expectedScore, outcome.Score(), 1e-9)

			assert.InDelta(t, tt.expectedScore, c.Score(context.Background(), "some review"), 1e-9)
		})
	}
}

func TestClassifier_FailedReasonCarriesCode(t *testing.T) {
	c := NewClassifier(&stubPredictor{err: errors.New("boom")}, 0, logger.NewNoOpLogger())

	outcome := c.Classify(context.Background(), "text")
	require.False(t, outcome.Succeeded())
	assert.True(t, apperrors.HasCode(outcome.Reason(), apperrors.ErrCodeClassificationFailed))
}

func TestClassifier_TimeoutFailsOpen(t *testing.T) {
	predictor := &stubPredictor{
		prediction: Prediction{Label: LabelPositive, Confidence: 0.9},
		delay:      time.Second,
	}
	c := NewClassifier(predictor, 20*time.Millisecond, logger.NewTestLogger(t))

	start := time.Now()
	outcome := c.Classify(context.Background(), "slow")
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	require.False(t, outcome.Succeeded())
	assert.True(t, apperrors.HasCode(outcome.Reason(), apperrors.ErrCodeClassificationTimeout))
	assert.Equal(t, 0.0, c.Score(context.Background(), "slow"))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, 1.0, Classified(3).Score(), "clamped high")
	assert.Equal(t, -1.0, Classified(-3).Score(), "clamped low")
	assert.Equal(t, 0.0, Classified(math.NaN()).Score())

	failed := Failed(nil)
	assert.False(t, failed.Succeeded())
	assert.Error(t, failed.Reason())
	assert.Equal(t, 0.0, failed.Score())
}
