// internal/models/review.go
package models

import "time"

// RawReview is a review as returned by the catalog. Only Content is read by
// the analysis pipeline.
type RawReview struct {
	Content  string    `json:"content"`
	ReviewID string    `json:"reviewId,omitempty"`
	UserName string    `json:"userName,omitempty"`
	Rating   int       `json:"score,omitempty"`
	At       time.Time `json:"at"`
}

// ReviewSentiment pairs a review text with its score in [-1, 1].
type ReviewSentiment struct {
	ReviewText     string  `json:"review_text"`
	SentimentScore float64 `json:"sentiment_score"`
}

// AnalysisResponse is the aggregate returned to callers and stored in the cache.
type AnalysisResponse struct {
	AverageSentiment float64           `json:"average_sentiment"`
	ReviewsAnalyzed  int               `json:"reviews_analyzed"`
	SampleReviews    []ReviewSentiment `json:"sample_reviews"`
}

// CacheEntry is a stored analysis with its creation time.
type CacheEntry struct {
	CreatedAt time.Time        `json:"created_at"`
	Value     AnalysisResponse `json:"value"`
}
