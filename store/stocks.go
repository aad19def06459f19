package store

import (
	"context"

	"stock-ratings/api"
	"stock-ratings/models"
)

// StockSource is the remote side of a StockStore.
type StockSource interface {
	FetchStocks(ctx context.Context, q api.StockQuery) (*api.StockPage, error)
}

// StockStore mirrors one page of the remote stock collection.
type StockStore struct {
	*collection[models.Stock]

	src StockSource

	// guarded by collection.mu
	currentPage int
	// committedPage is the page the loaded records belong to.
	committedPage int
	limit       int
	total       int
	totalPages  int
}

func NewStockStore(src StockSource, opts Options) *StockStore {
	limit := opts.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	return &StockStore{
		collection:  newCollection[models.Stock](opts),
		src:         src,
		currentPage:   1,
		committedPage: 1,
		limit:         limit,
	}
}

// StockSnapshot is a consistent copy of the whole store state.
type StockSnapshot struct {
	Stocks          []models.Stock       `json:"stocks"`
	View            []models.Stock       `json:"view"`
	Loading         bool                 `json:"loading"`
	Error           string               `json:"error,omitempty"`
	CurrentPage     int                  `json:"currentPage"`
	Limit           int                  `json:"limit"`
	Total           int                  `json:"total"`
	TotalPages      int                  `json:"totalPages"`
	SearchQuery     string               `json:"searchQuery"`
	SortField       models.SortField     `json:"sortField"`
	SortDirection   models.SortDirection `json:"sortDirection"`
	ServerFiltering bool                 `json:"serverFiltering"`
}

func (s *StockStore) Snapshot() StockSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StockSnapshot{
		Stocks:          s.recordsLocked(),
		View:            s.viewLocked(),
		Loading:         s.loading,
		Error:           s.errMsg,
		CurrentPage:     s.currentPage,
		Limit:           s.limit,
		Total:           s.total,
		TotalPages:      s.totalPages,
		SearchQuery:     s.searchQuery,
		SortField:       s.sortField,
		SortDirection:   s.sortDirection,
		ServerFiltering: s.serverFiltering,
	}
}

func (s *StockStore) CurrentPage() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPage
}

func (s *StockStore) Limit() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limit
}

func (s *StockStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *StockStore) TotalPages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalPages
}

// FetchPage loads page (1 when page < 1) with the current limit and, in the
// server-filtering profile, the current search text. Failures are recorded
// in Err and leave records and pagination as they were.
func (s *StockStore) FetchPage(ctx context.Context, page int) {
	s.fetch(ctx, normalizePage(page), nil)
}

// Refresh reloads the current page.
func (s *StockStore) Refresh(ctx context.Context) {
	s.FetchPage(ctx, s.CurrentPage())
}

// SetPage moves to page and fetches it. The page number changes right away;
// it goes back to the page of the loaded records if the fetch fails.
func (s *StockStore) SetPage(ctx context.Context, page int) {
	page = normalizePage(page)
	s.fetch(ctx, page, func() { s.currentPage = page })
}

// HandleSearch sets the search text and reloads from the first page.
func (s *StockStore) HandleSearch(ctx context.Context, query string) {
	s.fetch(ctx, 1, func() {
		s.searchQuery = query
		s.currentPage = 1
	})
}

// SetLimit changes the page size and reloads the current page.
func (s *StockStore) SetLimit(ctx context.Context, limit int) {
	if limit < 1 {
		limit = DefaultLimit
	}
	s.mu.Lock()
	s.limit = limit
	page := s.currentPage
	s.mu.Unlock()
	s.notify()

	s.FetchPage(ctx, page)
}

// fetch reads limit and search inside prepare's critical section so the
// request matches the state it was issued from. A failure puts currentPage
// back on the page of the loaded records, which may predate several
// superseded requests.
func (s *StockStore) fetch(ctx context.Context, page int, prepare func()) {
	var q api.StockQuery
	build := func() {
		if prepare != nil {
			prepare()
		}
		q = api.StockQuery{Page: page, Limit: s.limit}
		if s.serverFiltering {
			q.Search = s.searchQuery
		}
	}

	run(ctx, s.collection, build,
		func(ctx context.Context) (*api.StockPage, error) {
			resp, err := s.src.FetchStocks(ctx, q)
			if err == nil && resp == nil {
				err = errEmptyResponse
			}
			return resp, err
		},
		func(resp *api.StockPage) {
			items := resp.Items
			if items == nil {
				items = []models.Stock{}
			}
			s.records = items
			s.currentPage = resp.Page
			s.committedPage = resp.Page
			s.total = resp.Total
			s.totalPages = resp.TotalPages
			if resp.Limit > 0 {
				s.limit = resp.Limit
			}
		},
		func() { s.currentPage = s.committedPage },
	)
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
