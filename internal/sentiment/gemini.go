package sentiment

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	commonhttp "review-sentiment/internal/common/http"
)

const geminiPrompt = `Analyze the sentiment of the following review and return a single number between 0 and 1,
where 0 is extremely negative, 0.5 is neutral, and 1 is extremely positive.

Review: "%s"

Return only the number, nothing else.`

var numberPattern = regexp.MustCompile(`\d+\.\d+|\d+`)

// GeminiPredictor asks a Gemini model for a 0..1 rating and converts it to a
// label and confidence.
type GeminiPredictor struct {
	client   *commonhttp.Client
	endpoint string
}

func NewGeminiPredictor(baseURL, model, apiKey string, timeout time.Duration) (*GeminiPredictor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(model), url.QueryEscape(apiKey))
	return &GeminiPredictor{
		client:   commonhttp.NewClient(timeout),
		endpoint: endpoint,
	}, nil
}

func (p *GeminiPredictor) Predict(ctx context.Context, text string) (Prediction, error) {
	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": fmt.Sprintf(geminiPrompt, text)}}},
		},
	}

	body, err := p.client.PostJSON(ctx, p.endpoint, payload)
	if err != nil {
		return Prediction{}, fmt.Errorf("gemini request: %w", err)
	}

	reply := gjson.GetBytes(body, "candidates.0.content.parts.0.text")
	if !reply.Exists() {
		return Prediction{}, fmt.Errorf("gemini response has no candidate text")
	}

	rating, err := extractRating(reply.String())
	if err != nil {
		return Prediction{}, err
	}
	return ratingToPrediction(rating), nil
}

func extractRating(reply string) (float64, error) {
	reply = strings.TrimSpace(reply)
	if v, err := strconv.ParseFloat(reply, 64); err == nil {
		return checkRating(v)
	}
	match := numberPattern.FindString(reply)
	if match == "" {
		return 0, fmt.Errorf("no rating in gemini reply %q", reply)
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse gemini rating: %w", err)
	}
	return checkRating(v)
}

func checkRating(v float64) (float64, error) {
	if v < 0 || v > 1 {
		return 0, fmt.Errorf("gemini rating %v outside [0, 1]", v)
	}
	return v, nil
}

// ratingToPrediction maps a 0..1 rating onto the signed scale: 0.5 is
// neutral, the distance from it is the confidence.
func ratingToPrediction(rating float64) Prediction {
	confidence := 2*rating - 1
	if confidence < 0 {
		return Prediction{Label: LabelNegative, Confidence: -confidence}
	}
	return Prediction{Label: LabelPositive, Confidence: confidence}
}
