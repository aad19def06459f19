// Package analytics computes summary statistics over recommendation sets.
package analytics

import (
	"cmp"
	"slices"

	"stock-ratings/models"
)

// TopN is the number of records TopRecommendations returns.
const TopN = 5

// Score bucket thresholds, checked from the top down.
const (
	ExcellentThreshold = 12.0
	GoodThreshold      = 9.0
	FairThreshold      = 7.0
)

const (
	BucketExcellent = "excellent"
	BucketGood      = "good"
	BucketFair      = "fair"
	BucketPoor      = "poor"
)

// Distribution counts records per score bucket.
type Distribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

func (d Distribution) Total() int {
	return d.Excellent + d.Good + d.Fair + d.Poor
}

// Top returns the n highest-scored records, best first. Ties keep input order.
func Top(recs []models.Recommendation, n int) []models.Recommendation {
	sorted := make([]models.Recommendation, len(recs))
	copy(sorted, recs)
	slices.SortStableFunc(sorted, func(a, b models.Recommendation) int {
		return cmp.Compare(b.Score(), a.Score())
	})
	if n < 0 {
		n = 0
	}
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

func TopRecommendations(recs []models.Recommendation) []models.Recommendation {
	return Top(recs, TopN)
}

// AverageScore is the mean score, or 0 for an empty set.
func AverageScore(recs []models.Recommendation) float64 {
	if len(recs) == 0 {
		return 0
	}
	var sum float64
	for _, r := range recs {
		sum += r.Score()
	}
	return sum / float64(len(recs))
}

// Bucket names the single bucket a score falls into.
func Bucket(score float64) string {
	switch {
	case score >= ExcellentThreshold:
		return BucketExcellent
	case score >= GoodThreshold:
		return BucketGood
	case score >= FairThreshold:
		return BucketFair
	default:
		return BucketPoor
	}
}

func ScoreDistribution(recs []models.Recommendation) Distribution {
	var d Distribution
	for _, r := range recs {
		switch Bucket(r.Score()) {
		case BucketExcellent:
			d.Excellent++
		case BucketGood:
			d.Good++
		case BucketFair:
			d.Fair++
		default:
			d.Poor++
		}
	}
	return d
}
