package sentiment

import (
	"fmt"

	"review-sentiment/internal/common/config"
)

// NewPredictor builds the provider selected by classification.provider.
func NewPredictor(cfg *config.Config) (Predictor, error) {
	switch cfg.Classification.Provider {
	case config.ProviderHuggingFace:
		hf := cfg.APIs.HuggingFace
		return NewHuggingFacePredictor(hf.BaseURL, hf.Model, hf.APIKey, config.GetDuration(hf.Timeout)), nil
	case config.ProviderGemini:
		gm := cfg.APIs.Gemini
		return NewGeminiPredictor(gm.BaseURL, gm.Model, gm.APIKey, config.GetDuration(gm.Timeout))
	default:
		return nil, fmt.Errorf("unknown classification provider %q", cfg.Classification.Provider)
	}
}
