package view

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	eventStocks          = "stocks"
	eventRecommendations = "recommendations"
)

// newWakeup returns a channel that holds at most one pending wake-up, and the
// non-blocking function that fills it.
func newWakeup() (chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	return ch, func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// GET /api/events streams a snapshot of a store every time it changes.
// Bursts of changes collapse into one event carrying the latest state.
func (s *Server) events(c *gin.Context) {
	stocksCh, stocksChanged := newWakeup()
	recsCh, recsChanged := newWakeup()

	unsubStocks := s.stocks.Subscribe(stocksChanged)
	defer unsubStocks()
	unsubRecs := s.recs.Subscribe(recsChanged)
	defer unsubRecs()

	// initial state
	stocksChanged()
	recsChanged()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(s.opts.KeepAlive)
	defer keepAlive.Stop()

	log := s.logger.With().Str("request_id", getRequestID(c)).Logger()
	log.Debug().Str("remote", c.ClientIP()).Msg("Event stream opened")
	defer log.Debug().Msg("Event stream closed")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-stocksCh:
			c.SSEvent(eventStocks, s.stocks.Snapshot())
		case <-recsCh:
			c.SSEvent(eventRecommendations, s.recs.Snapshot())
		case <-keepAlive.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return false
			}
		}
		return true
	})
}
