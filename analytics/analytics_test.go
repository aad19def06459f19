package analytics

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-ratings/models"
)

func rec(ticker string, score float64) models.Recommendation {
	return models.Recommendation{Stock: models.Stock{Ticker: ticker}, RecommendationScore: score}
}

func TestAverageScore(t *testing.T) {
	assert.Equal(t, 0.0, AverageScore(nil))
	assert.Equal(t, 0.0, AverageScore([]models.Recommendation{}))
	assert.Equal(t, 10.0, AverageScore([]models.Recommendation{rec("A", 10)}))
	assert.InDelta(t, 7.5, AverageScore([]models.Recommendation{rec("A", 10), rec("B", 5)}), 1e-9)
}

func TestBucket(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{15, BucketExcellent},
		{12, BucketExcellent},
		{11.99, BucketGood},
		{9, BucketGood},
		{8.5, BucketFair},
		{7, BucketFair},
		{6.99, BucketPoor},
		{-3, BucketPoor},
		{math.NaN(), BucketPoor},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Bucket(tt.score), "score %v", tt.score)
	}
}

func TestScoreDistribution(t *testing.T) {
	recs := []models.Recommendation{
		rec("A", 13), rec("B", 12), rec("C", 10), rec("D", 7), rec("E", 2), rec("F", 0),
	}

	d := ScoreDistribution(recs)
	assert.Equal(t, Distribution{Excellent: 2, Good: 1, Fair: 1, Poor: 2}, d)
	assert.Equal(t, len(recs), d.Total())
}

func TestScoreDistribution_AllBucketsSerialized(t *testing.T) {
	data, err := json.Marshal(ScoreDistribution(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"excellent":0,"good":0,"fair":0,"poor":0}`, string(data))
}

func TestTopRecommendations(t *testing.T) {
	recs := []models.Recommendation{
		rec("A", 5), rec("B", 9), rec("C", 12), rec("D", 9), rec("E", 1), rec("F", 14), rec("G", 3),
	}
	before := make([]models.Recommendation, len(recs))
	copy(before, recs)

	top := TopRecommendations(recs)
	require.Len(t, top, TopN)

	var got []string
	for _, r := range top {
		got = append(got, r.Ticker)
	}
	// B and D tie; B came first.
	assert.Equal(t, []string{"F", "C", "B", "D", "A"}, got)
	assert.Equal(t, before, recs, "source must not be reordered")
}

func TestTop_FewerThanN(t *testing.T) {
	top := Top([]models.Recommendation{rec("A", 1), rec("B", 2)}, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Ticker)

	assert.Empty(t, Top(nil, 5))
	assert.Empty(t, Top([]models.Recommendation{rec("A", 1)}, -1))
}
