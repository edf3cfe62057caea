// internal/workers/analyze-app-reviews/models.go
package analyzeappreviews

import "review-sentiment/internal/models"

type Input struct {
	AppName string `json:"appName"`
}

// Output is written back as process variables.
type Output struct {
	AppName          string                   `json:"appName"`
	AverageSentiment float64                  `json:"averageSentiment"`
	ReviewsAnalyzed  int                      `json:"reviewsAnalyzed"`
	SampleReviews    []models.ReviewSentiment `json:"sampleReviews"`
}
