package models

import "github.com/shopspring/decimal"

// Stock is a single analyst rating change as served by the /stocks endpoint.
type Stock struct {
	Ticker     string  `json:"ticker"`
	Company    string  `json:"company"`
	Brokerage  string  `json:"brokerage"`
	Action     string  `json:"action"`      // e.g., "upgraded by", "target raised by"
	RatingFrom string  `json:"rating_from"` // e.g., "Hold", "Buy"
	RatingTo   string  `json:"rating_to"`
	TargetFrom float64 `json:"target_from"` // price target before the change
	TargetTo   float64 `json:"target_to"`
	Time       string  `json:"time"` // ISO-8601
}

// Recommendation is a Stock carrying the backend's recommendation score.
type Recommendation struct {
	Stock
	RecommendationScore float64 `json:"recommendation_score"`
}

// Record is implemented by every value the stores hold.
type Record interface {
	// Value returns the field stored under its JSON name.
	Value(field SortField) (any, bool)
	// SearchText returns ticker, company, brokerage and action, in that order.
	SearchText() []string
}

func (s Stock) Value(field SortField) (any, bool) {
	switch field {
	case FieldTicker:
		return s.Ticker, true
	case FieldCompany:
		return s.Company, true
	case FieldBrokerage:
		return s.Brokerage, true
	case FieldAction:
		return s.Action, true
	case FieldRatingFrom:
		return s.RatingFrom, true
	case FieldRatingTo:
		return s.RatingTo, true
	case FieldTargetFrom:
		return s.TargetFrom, true
	case FieldTargetTo:
		return s.TargetTo, true
	case FieldTime:
		return s.Time, true
	}
	return nil, false
}

func (s Stock) SearchText() []string {
	return []string{s.Ticker, s.Company, s.Brokerage, s.Action}
}

// Upside is the percentage move from TargetFrom to TargetTo, rounded to two
// places. Zero when there is no previous target.
func (s Stock) Upside() decimal.Decimal {
	if s.TargetFrom <= 0 {
		return decimal.Zero
	}
	from := decimal.NewFromFloat(s.TargetFrom)
	to := decimal.NewFromFloat(s.TargetTo)
	return to.Sub(from).Div(from).Mul(decimal.NewFromInt(100)).Round(2)
}

func (r Recommendation) Value(field SortField) (any, bool) {
	if field == FieldRecommendationScore {
		return r.RecommendationScore, true
	}
	return r.Stock.Value(field)
}

// Score is a shorthand for RecommendationScore.
func (r Recommendation) Score() float64 {
	return r.RecommendationScore
}
