package api

import "stock-ratings/models"

// StockQuery is encoded into the /stocks query string.
type StockQuery struct {
	Page   int    `schema:"page"`
	Limit  int    `schema:"limit"`
	Search string `schema:"search,omitempty"`
}

// StockPage is the pagination envelope returned by /stocks.
type StockPage struct {
	Items      []models.Stock `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

// RecommendationQuery is encoded into the /recommendations query string.
type RecommendationQuery struct {
	Limit        int `schema:"limit"`
	MinimumScore int `schema:"minimum_score"`
}
