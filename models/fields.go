package models

import "fmt"

// SortField names a record field by its JSON key.
type SortField string

const (
	FieldTicker              SortField = "ticker"
	FieldCompany             SortField = "company"
	FieldBrokerage           SortField = "brokerage"
	FieldAction              SortField = "action"
	FieldRatingFrom          SortField = "rating_from"
	FieldRatingTo            SortField = "rating_to"
	FieldTargetFrom          SortField = "target_from"
	FieldTargetTo            SortField = "target_to"
	FieldTime                SortField = "time"
	FieldRecommendationScore SortField = "recommendation_score"
)

var knownFields = []SortField{
	FieldTicker, FieldCompany, FieldBrokerage, FieldAction,
	FieldRatingFrom, FieldRatingTo, FieldTargetFrom, FieldTargetTo,
	FieldTime, FieldRecommendationScore,
}

// Fields returns every sortable field name.
func Fields() []SortField {
	out := make([]SortField, len(knownFields))
	copy(out, knownFields)
	return out
}

func (f SortField) IsValid() bool {
	for _, k := range knownFields {
		if f == k {
			return true
		}
	}
	return false
}

// ParseSortField accepts any known field name.
func ParseSortField(s string) (SortField, error) {
	f := SortField(s)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown sort field %q", s)
	}
	return f, nil
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// Flip returns the opposite direction.
func (d SortDirection) Flip() SortDirection {
	if d == Ascending {
		return Descending
	}
	return Ascending
}
