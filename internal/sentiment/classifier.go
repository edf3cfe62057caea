// Package sentiment turns review texts into signed sentiment scores.
package sentiment

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/common/metrics"
)

// Label is the polarity class reported by a predictor.
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
)

// Prediction is the raw output of a classification provider.
type Prediction struct {
	Label      Label
	Confidence float64
}

// Predictor is the external classification collaborator.
type Predictor interface {
	Predict(ctx context.Context, text string) (Prediction, error)
}

// Outcome is the result of one classification: either a score or the reason
// classification failed.
type Outcome struct {
	score  float64
	reason error
}

func Classified(score float64) Outcome {
	return Outcome{score: score}
}

func Failed(reason error) Outcome {
	if reason == nil {
		reason = stderrors.New("unknown classification failure")
	}
	return Outcome{reason: reason}
}

func (o Outcome) Succeeded() bool {
	return o.reason == nil
}

// Reason is nil for classified outcomes.
func (o Outcome) Reason() error {
	return o.reason
}

// Score applies the fail-open policy: failed outcomes score 0 and classified
// scores are clamped into [-1, 1].
func (o Outcome) Score() float64 {
	if o.reason != nil {
		return 0
	}
	return clamp(o.score)
}

// Classifier adapts a Predictor to signed scores.
type Classifier struct {
	predictor Predictor
	timeout   time.Duration
	logger    logger.Logger
}

// NewClassifier wraps predictor. A positive timeout bounds every call.
func NewClassifier(predictor Predictor, timeout time.Duration, log logger.Logger) *Classifier {
	return &Classifier{
		predictor: predictor,
		timeout:   timeout,
		logger:    log,
	}
}

// Classify calls the predictor and maps its answer to +confidence for the
// positive label and -confidence otherwise.
func (c *Classifier) Classify(ctx context.Context, text string) Outcome {
	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	prediction, err := c.predictor.Predict(callCtx, text)
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if c.timeout > 0 && stderrors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return Failed(errors.NewClassificationTimeoutError(c.timeout))
		}
		return Failed(errors.NewClassificationFailedError(err))
	}

	if math.IsNaN(prediction.Confidence) || prediction.Confidence < 0 || prediction.Confidence > 1 {
		return Failed(errors.NewClassificationFailedError(
			fmt.Errorf("confidence %v outside [0, 1]", prediction.Confidence)))
	}

	if prediction.Label == LabelPositive {
		return Classified(prediction.Confidence)
	}
	return Classified(-prediction.Confidence)
}

// Score classifies text and never fails.
func (c *Classifier) Score(ctx context.Context, text string) float64 {
	outcome := c.Classify(ctx, text)
	if !outcome.Succeeded() {
		metrics.ClassificationsTotal.WithLabelValues("failed").Inc()
		c.logger.Warn("classification failed, scoring neutral", map[string]interface{}{
			"reason":     outcome.Reason().Error(),
			"textLength": len(text),
		})
		return outcome.Score()
	}
	metrics.ClassificationsTotal.WithLabelValues("classified").Inc()
	return outcome.Score()
}

func clamp(score float64) float64 {
	switch {
	case math.IsNaN(score):
		return 0
	case score > 1:
		return 1
	case score < -1:
		return -1
	default:
		return score
	}
}
