package view

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stock-ratings/models"
)

type pageRequest struct {
	Page int `json:"page" binding:"required,min=1"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type sortRequest struct {
	Field string `json:"field" binding:"required"`
}

type limitRequest struct {
	Limit int `json:"limit" binding:"required,min=1"`
}

type minimumScoreRequest struct {
	MinimumScore *int `json:"minimum_score" binding:"required,min=0"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/stocks
func (s *Server) getStocks(c *gin.Context) {
	c.JSON(http.StatusOK, s.stocks.Snapshot())
}

// POST /api/stocks/page
func (s *Server) setPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.stocks.SetPage(c.Request.Context(), req.Page)
	c.JSON(http.StatusOK, s.stocks.Snapshot())
}

// POST /api/stocks/search refetches page 1 with the query.
func (s *Server) search(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.stocks.HandleSearch(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, s.stocks.Snapshot())
}

// POST /api/stocks/filter only changes the search text.
func (s *Server) filter(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.stocks.SetSearch(req.Query)
	c.JSON(http.StatusOK, s.stocks.Snapshot())
}

// POST /api/stocks/sort
func (s *Server) sortStocks(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	field, err := models.ParseSortField(req.Field)
	if err != nil {
		badRequest(c, err)
		return
	}
	s.stocks.SetSorting(field)
	c.JSON(http.StatusOK, s.stocks.Snapshot())
}

// PUT /api/stocks/limit
func (s *Server) setStockLimit(c *gin.Context) {
	var req limitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.stocks.SetLimit(c.Request.Context(), req.Limit)
	c.JSON(http.StatusOK, s.stocks.Snapshot())
}

// GET /api/recommendations
func (s *Server) getRecommendations(c *gin.Context) {
	c.JSON(http.StatusOK, s.recs.Snapshot())
}

// POST /api/recommendations/refresh
func (s *Server) refreshRecommendations(c *gin.Context) {
	s.recs.Fetch(c.Request.Context())
	c.JSON(http.StatusOK, s.recs.Snapshot())
}

// PUT /api/recommendations/limit
func (s *Server) setRecommendationLimit(c *gin.Context) {
	var req limitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.recs.SetLimit(c.Request.Context(), req.Limit)
	c.JSON(http.StatusOK, s.recs.Snapshot())
}

// PUT /api/recommendations/minimum-score
func (s *Server) setMinimumScore(c *gin.Context) {
	var req minimumScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.recs.SetMinimumScore(c.Request.Context(), *req.MinimumScore)
	c.JSON(http.StatusOK, s.recs.Snapshot())
}
