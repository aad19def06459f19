package store

import (
	"context"

	"stock-ratings/analytics"
	"stock-ratings/api"
	"stock-ratings/models"
)

// RecommendationSource is the remote side of a RecommendationStore.
type RecommendationSource interface {
	FetchRecommendations(ctx context.Context, q api.RecommendationQuery) ([]models.Recommendation, error)
}

// RecommendationStore holds the current scored recommendation set and
// derives rankings and score statistics from it.
type RecommendationStore struct {
	*collection[models.Recommendation]

	src RecommendationSource

	// guarded by collection.mu
	limit        int
	minimumScore int
}

func NewRecommendationStore(src RecommendationSource, opts Options) *RecommendationStore {
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	minimum := DefaultMinimumScore
	if opts.MinimumScore != nil {
		minimum = max(*opts.MinimumScore, 0)
	}
	return &RecommendationStore{
		collection:   newCollection[models.Recommendation](opts),
		src:          src,
		limit:        limit,
		minimumScore: minimum,
	}
}

type RecommendationSnapshot struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	View            []models.Recommendation `json:"view"`
	Top             []models.Recommendation `json:"top"`
	AverageScore    float64                 `json:"averageScore"`
	Distribution    analytics.Distribution  `json:"distribution"`
	Loading         bool                    `json:"loading"`
	Error           string                  `json:"error,omitempty"`
	Limit           int                     `json:"limit"`
	MinimumScore    int                     `json:"minimumScore"`
	SearchQuery     string                  `json:"searchQuery"`
	SortField       models.SortField        `json:"sortField"`
	SortDirection   models.SortDirection    `json:"sortDirection"`
}

func (s *RecommendationStore) Snapshot() RecommendationSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return RecommendationSnapshot{
		Recommendations: s.recordsLocked(),
		View:            s.viewLocked(),
		Top:             analytics.TopRecommendations(s.records),
		AverageScore:    analytics.AverageScore(s.records),
		Distribution:    analytics.ScoreDistribution(s.records),
		Loading:         s.loading,
		Error:           s.errMsg,
		Limit:           s.limit,
		MinimumScore:    s.minimumScore,
		SearchQuery:     s.searchQuery,
		SortField:       s.sortField,
		SortDirection:   s.sortDirection,
	}
}

func (s *RecommendationStore) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

func (s *RecommendationStore) MinimumScore() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minimumScore
}

// TopRecommendations returns the five best-scored records.
func (s *RecommendationStore) TopRecommendations() []models.Recommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.TopRecommendations(s.records)
}

func (s *RecommendationStore) AverageScore() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.AverageScore(s.records)
}

func (s *RecommendationStore) ScoreDistribution() analytics.Distribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return analytics.ScoreDistribution(s.records)
}

// Fetch reloads the recommendations with the current limit and threshold.
// Failures are recorded in Err and keep the previous set.
func (s *RecommendationStore) Fetch(ctx context.Context) {
	s.fetch(ctx, nil)
}

// SetLimit changes how many recommendations are requested and refetches.
func (s *RecommendationStore) SetLimit(ctx context.Context, limit int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	s.fetch(ctx, func() { s.limit = limit })
}

// SetMinimumScore changes the score threshold and refetches.
func (s *RecommendationStore) SetMinimumScore(ctx context.Context, score int) {
	if score < 0 {
		score = 0
	}
	s.fetch(ctx, func() { s.minimumScore = score })
}

func (s *RecommendationStore) fetch(ctx context.Context, prepare func()) {
	var q api.RecommendationQuery
	build := func() {
		if prepare != nil {
			prepare()
		}
		q = api.RecommendationQuery{Limit: s.limit, MinimumScore: s.minimumScore}
	}

	run(ctx, s.collection, build,
		func(ctx context.Context) ([]models.Recommendation, error) {
			return s.src.FetchRecommendations(ctx, q)
		},
		func(recs []models.Recommendation) {
			if recs == nil {
				recs = []models.Recommendation{}
			}
			s.records = recs
		},
		nil,
	)
}
