package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "review-sentiment/internal/common/errors"
	"review-sentiment/internal/models"
)

// writeUpstreamConfig starts a fake catalog and model and returns a config
// file pointing the pipeline at them.
func writeUpstreamConfig(t *testing.T) string {
	t.Helper()
	for _, key := range []string{"HOST", "PORT", "DEBUG", "ALLOWED_ORIGINS", "GEMINI_API_KEY", "HF_API_TOKEN"} {
		t.Setenv(key, "")
	}

	catalogMux := http.NewServeMux()
	catalogMux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		var results []models.SearchResult
		if strings.Contains(strings.ToLower(r.URL.Query().Get("q")), "chess") {
			results = []models.SearchResult{{AppID: "com.chess", Title: "Chess"}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(results)
	})
	catalogMux.HandleFunc("/apps/com.chess/reviews", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.RawReview{
			{Content: "love this game", ReviewID: "r1"},
			{Content: "crashes constantly", ReviewID: "r2"},
		})
	})
	catalog := httptest.NewServer(catalogMux)
	t.Cleanup(catalog.Close)

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Inputs string `json:"inputs"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		label := "NEGATIVE"
		if strings.Contains(req.Inputs, "love") {
			label = "POSITIVE"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `[[{"label":%q,"score":0.9}]]`, label)
	}))
	t.Cleanup(model.Close)

	body := fmt.Sprintf(`classification:
  provider: huggingface
  rate_per_second: 100
catalog:
  base_url: %s
apis:
  huggingface:
    base_url: %s
    model: sst2
cache:
  backend: memory
`, catalog.URL, model.URL)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		cfgFile, verbose = "", false
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	path := writeUpstreamConfig(t)

	out, err := execute(t, "--config", path, "search", "chess")
	require.NoError(t, err)

	var apps []models.AppInfo
	require.NoError(t, json.Unmarshal([]byte(out), &apps))
	assert.Equal(t, []models.AppInfo{{AppID: "com.chess", Title: "Chess"}}, apps)
}

func TestAppCommand(t *testing.T) {
	path := writeUpstreamConfig(t)

	out, err := execute(t, "--config", path, "app", "Chess")
	require.NoError(t, err)

	var result models.AnalysisResponse
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, 2, result.ReviewsAnalyzed)
	assert.InDelta(t, 0.0, result.AverageSentiment, 1e-9)
	require.Len(t, result.SampleReviews, 2)
	assert.Equal(t, "love this game", result.SampleReviews[0].ReviewText)
	assert.InDelta(t, 0.9, result.SampleReviews[0].SentimentScore, 1e-9)
}

func TestAppCommand_UnknownApp(t *testing.T) {
	path := writeUpstreamConfig(t)

	out, err := execute(t, "--config", path, "app", "Nonexistent")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAppNotFound))
	assert.Empty(t, out)
}

func TestAppCommand_RequiresName(t *testing.T) {
	_, err := execute(t, "app")
	assert.Error(t, err)
}
