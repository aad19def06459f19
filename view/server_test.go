package view

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-ratings/api"
	"stock-ratings/models"
	"stock-ratings/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSource struct {
	mu        sync.Mutex
	stockQs   []api.StockQuery
	recQs     []api.RecommendationQuery
	stocks    []models.Stock
	recs      []models.Recommendation
	stockFail error
}

func (f *fakeSource) FetchStocks(ctx context.Context, q api.StockQuery) (*api.StockPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockQs = append(f.stockQs, q)
	if f.stockFail != nil {
		return nil, f.stockFail
	}
	return &api.StockPage{Items: f.stocks, Total: 30, Page: q.Page, Limit: q.Limit, TotalPages: 3}, nil
}

func (f *fakeSource) FetchRecommendations(ctx context.Context, q api.RecommendationQuery) ([]models.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recQs = append(f.recQs, q)
	return f.recs, nil
}

func (f *fakeSource) stockCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stockQs)
}

func newTestServer(t *testing.T) (*Server, *fakeSource) {
	t.Helper()
	src := &fakeSource{
		stocks: []models.Stock{
			{Ticker: "ACME", Company: "Acme Corp", Time: "2024-01-01T00:00:00Z"},
			{Ticker: "GLBX", Company: "Globex", Time: "2024-01-02T00:00:00Z"},
		},
		recs: []models.Recommendation{
			{Stock: models.Stock{Ticker: "ACME"}, RecommendationScore: 12},
			{Stock: models.Stock{Ticker: "GLBX"}, RecommendationScore: 8},
		},
	}
	stocks := store.NewStockStore(src, store.Options{})
	recs := store.NewRecommendationStore(src, store.Options{})
	srv := NewServer(stocks, recs, zerolog.Nop(), Options{AllowedOrigins: []string{"http://localhost:3000"}})
	return srv, src
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestNoRoute(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStocks_Page(t *testing.T) {
	srv, src := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/stocks/page", `{"page": 2}`)
	require.Equal(t, http.StatusOK, w.Code)

	snap := decode[store.StockSnapshot](t, w)
	assert.Equal(t, 2, snap.CurrentPage)
	assert.Equal(t, 3, snap.TotalPages)
	assert.Len(t, snap.Stocks, 2)
	assert.Equal(t, 2, src.stockQs[0].Page)

	w = do(t, srv, http.MethodGet, "/api/stocks", "")
	assert.Equal(t, 2, decode[store.StockSnapshot](t, w).CurrentPage)
}

func TestStocks_BadRequests(t *testing.T) {
	tests := []struct {
		name, method, path, body string
	}{
		{"page zero", http.MethodPost, "/api/stocks/page", `{"page": 0}`},
		{"page missing", http.MethodPost, "/api/stocks/page", `{}`},
		{"not json", http.MethodPost, "/api/stocks/search", `query=acme`},
		{"unknown field", http.MethodPost, "/api/stocks/sort", `{"field": "price"}`},
		{"negative limit", http.MethodPut, "/api/stocks/limit", `{"limit": -5}`},
		{"score missing", http.MethodPut, "/api/recommendations/minimum-score", `{}`},
		{"negative score", http.MethodPut, "/api/recommendations/minimum-score", `{"minimum_score": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, src := newTestServer(t)
			w := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
			assert.Zero(t, src.stockCalls())
		})
	}
}

func TestStocks_SearchAndFilter(t *testing.T) {
	srv, src := newTestServer(t)
	do(t, srv, http.MethodPost, "/api/stocks/page", `{"page": 3}`)

	w := do(t, srv, http.MethodPost, "/api/stocks/search", `{"query": "acme"}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[store.StockSnapshot](t, w)
	assert.Equal(t, "acme", snap.SearchQuery)
	assert.Equal(t, 1, snap.CurrentPage)
	require.Len(t, snap.View, 1)
	assert.Equal(t, "ACME", snap.View[0].Ticker)
	assert.Equal(t, 2, src.stockCalls())

	w = do(t, srv, http.MethodPost, "/api/stocks/filter", `{"query": "globex"}`)
	snap = decode[store.StockSnapshot](t, w)
	assert.Equal(t, 2, src.stockCalls(), "filter does not refetch")
	require.Len(t, snap.View, 1)
	assert.Equal(t, "GLBX", snap.View[0].Ticker)
}

func TestStocks_SortAndLimit(t *testing.T) {
	srv, src := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/stocks/sort", `{"field": "ticker"}`)
	snap := decode[store.StockSnapshot](t, w)
	assert.Equal(t, models.FieldTicker, snap.SortField)
	assert.Equal(t, models.Ascending, snap.SortDirection)

	w = do(t, srv, http.MethodPost, "/api/stocks/sort", `{"field": "ticker"}`)
	assert.Equal(t, models.Descending, decode[store.StockSnapshot](t, w).SortDirection)

	w = do(t, srv, http.MethodPut, "/api/stocks/limit", `{"limit": 25}`)
	assert.Equal(t, 25, decode[store.StockSnapshot](t, w).Limit)
	assert.Equal(t, 25, src.stockQs[len(src.stockQs)-1].Limit)
}

func TestStocks_FetchErrorInSnapshot(t *testing.T) {
	srv, src := newTestServer(t)
	src.stockFail = &api.Error{Kind: api.KindStatus, Endpoint: "/stocks", StatusCode: 503}

	w := do(t, srv, http.MethodPost, "/api/stocks/page", `{"page": 2}`)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[store.StockSnapshot](t, w)
	assert.Equal(t, "fetching /stocks failed: HTTP error, status: 503", snap.Error)
	assert.Equal(t, 1, snap.CurrentPage)
}

func TestRecommendations(t *testing.T) {
	srv, src := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/recommendations/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[store.RecommendationSnapshot](t, w)
	assert.Len(t, snap.Recommendations, 2)
	assert.Equal(t, "ACME", snap.Top[0].Ticker)
	assert.InDelta(t, 10.0, snap.AverageScore, 1e-9)
	assert.Equal(t, 1, snap.Distribution.Excellent)
	assert.Equal(t, 1, snap.Distribution.Fair)

	w = do(t, srv, http.MethodPut, "/api/recommendations/limit", `{"limit": 3}`)
	assert.Equal(t, 3, decode[store.RecommendationSnapshot](t, w).Limit)

	w = do(t, srv, http.MethodPut, "/api/recommendations/minimum-score", `{"minimum_score": 0}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[store.RecommendationSnapshot](t, w).MinimumScore)
	assert.Equal(t, api.RecommendationQuery{Limit: 3, MinimumScore: 0}, src.recQs[len(src.recQs)-1])

	w = do(t, srv, http.MethodGet, "/api/recommendations", "")
	assert.Equal(t, 3, decode[store.RecommendationSnapshot](t, w).Limit)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/stocks/page", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	seen := map[string]bool{}
	scanner := bufio.NewScanner(resp.Body)
	readUntil := func(event string) {
		for !seen[event] && scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
				seen[name] = true
			}
		}
	}

	// initial state for both stores
	readUntil(eventStocks)
	readUntil(eventRecommendations)
	require.True(t, seen[eventStocks])
	require.True(t, seen[eventRecommendations])

	// a change is pushed
	delete(seen, eventStocks)
	srv.stocks.SetSearch("acme")
	readUntil(eventStocks)
	assert.True(t, seen[eventStocks])
}
