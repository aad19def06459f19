// Package view exposes the collection stores over HTTP for a browser view:
// JSON snapshots, mutation endpoints and a server-sent event stream of
// state changes.
package view

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stock-ratings/store"
)

// Options configure the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// KeepAlive is the SSE comment interval. Zero means 30s.
	KeepAlive time.Duration
}

// Server binds a StockStore and a RecommendationStore to gin routes.
type Server struct {
	stocks *store.StockStore
	recs   *store.RecommendationStore
	logger zerolog.Logger
	opts   Options
	engine *gin.Engine
}

func NewServer(stocks *store.StockStore, recs *store.RecommendationStore, logger zerolog.Logger, opts Options) *Server {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	s := &Server{
		stocks: stocks,
		recs:   recs,
		logger: logger,
		opts:   opts,
	}
	s.engine = s.routes()
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID(), accessLog(s.logger, "/api/health", "/api/events"), recovery(s.logger), corsMiddleware(s.opts.AllowedOrigins))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "path": c.Request.URL.Path})
	})

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/events", s.events)

		stocks := api.Group("/stocks")
		stocks.GET("", s.getStocks)
		stocks.POST("/page", s.setPage)
		stocks.POST("/search", s.search)
		stocks.POST("/filter", s.filter)
		stocks.POST("/sort", s.sortStocks)
		stocks.PUT("/limit", s.setStockLimit)

		recs := api.Group("/recommendations")
		recs.GET("", s.getRecommendations)
		recs.POST("/refresh", s.refreshRecommendations)
		recs.PUT("/limit", s.setRecommendationLimit)
		recs.PUT("/minimum-score", s.setMinimumScore)
	}
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		// event streams end with ctx instead of holding up Shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("View server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down view server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
