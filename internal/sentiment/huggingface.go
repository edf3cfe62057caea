package sentiment

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	commonhttp "review-sentiment/internal/common/http"
)

// HuggingFacePredictor calls a text-classification model on the Hugging Face
// inference API.
type HuggingFacePredictor struct {
	client   *commonhttp.Client
	endpoint string
}

func NewHuggingFacePredictor(baseURL, model, apiKey string, timeout time.Duration) *HuggingFacePredictor {
	client := commonhttp.NewClient(timeout)
	if apiKey != "" {
		client = client.WithHeader("Authorization", "Bearer "+apiKey)
	}
	return &HuggingFacePredictor{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + "/models/" + url.PathEscape(model),
	}
}

func (p *HuggingFacePredictor) Predict(ctx context.Context, text string) (Prediction, error) {
	body, err := p.client.PostJSON(ctx, p.endpoint, map[string]string{"inputs": text})
	if err != nil {
		return Prediction{}, fmt.Errorf("huggingface request: %w", err)
	}
	return parseHuggingFace(body)
}

// parseHuggingFace accepts both [[{label, score}]] and [{label, score}] and
// picks the highest scoring label.
func parseHuggingFace(body []byte) (Prediction, error) {
	if !gjson.ValidBytes(body) {
		return Prediction{}, fmt.Errorf("huggingface returned invalid JSON")
	}

	root := gjson.ParseBytes(body)
	if msg := root.Get("error"); msg.Exists() {
		return Prediction{}, fmt.Errorf("huggingface error: %s", msg.String())
	}

	entries := root
	if first := root.Get("0"); first.IsArray() {
		entries = first
	}
	if !entries.IsArray() {
		return Prediction{}, fmt.Errorf("huggingface returned unexpected shape")
	}

	bestLabel := ""
	bestScore := -1.0
	entries.ForEach(func(_, entry gjson.Result) bool {
		label := entry.Get("label")
		score := entry.Get("score")
		if label.Exists() && score.Exists() && score.Float() > bestScore {
			bestLabel = label.String()
			bestScore = score.Float()
		}
		return true
	})
	if bestLabel == "" {
		return Prediction{}, fmt.Errorf("huggingface returned no labels")
	}

	return Prediction{Label: normalizeLabel(bestLabel), Confidence: bestScore}, nil
}

func normalizeLabel(label string) Label {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "POSITIVE", "POS", "LABEL_1":
		return LabelPositive
	default:
		return LabelNegative
	}
}
