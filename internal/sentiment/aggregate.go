package sentiment

import "review-sentiment/internal/models"

// AverageSentiment is the arithmetic mean of the scores, 0 for an empty set.
func AverageSentiment(results []models.ReviewSentiment) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.SentimentScore
	}
	return sum / float64(len(results))
}

// Aggregate builds the response for an analyzed batch. The sample is the
// first sampleSize results in retrieval order.
func Aggregate(results []models.ReviewSentiment, sampleSize int) models.AnalysisResponse {
	n := sampleSize
	if n < 0 {
		n = 0
	}
	if n > len(results) {
		n = len(results)
	}

	sample := make([]models.ReviewSentiment, n)
	copy(sample, results[:n])

	return models.AnalysisResponse{
		AverageSentiment: AverageSentiment(results),
		ReviewsAnalyzed:  len(results),
		SampleReviews:    sample,
	}
}
