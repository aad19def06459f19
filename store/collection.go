// Package store holds the collection stores a view binds to: the paginated
// stock list and the scored recommendation set.
//
// A store owns its records and request state. Mutators fetch from the remote
// service and commit the result atomically; readers always see a complete
// state, possibly the one from before an in-flight fetch. Derived views are
// recomputed on every read.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"stock-ratings/models"
	"stock-ratings/projection"
	"stock-ratings/search"
)

// Options configure a store.
type Options struct {
	// Limit is the page size (stocks) or result count (recommendations).
	Limit int
	// ServerFiltering sends the search text to the remote service instead of
	// filtering the loaded records locally.
	ServerFiltering bool
	// MinimumScore is the recommendation score threshold, DefaultMinimumScore
	// when nil.
	MinimumScore *int

	Engine   search.Engine
	Language language.Tag
	Logger   *zerolog.Logger
}

var errEmptyResponse = errors.New("empty response from service")

const (
	DefaultLimit        = 10
	DefaultMinimumScore = 7
)

type listener struct {
	id int
	fn func()
}

// collection is the state shared by every store: records, request status,
// query parameters and listeners. All fields are guarded by mu.
type collection[T models.Record] struct {
	mu sync.RWMutex

	records []T
	loading bool
	errMsg  string
	seq     uint64

	searchQuery     string
	sortField       models.SortField
	sortDirection   models.SortDirection
	serverFiltering bool

	projection projection.Options
	logger     zerolog.Logger

	listenersMu sync.Mutex
	listeners   []listener
	nextID      int
}

func newCollection[T models.Record](opts Options) *collection[T] {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	engine := opts.Engine
	if engine == nil {
		engine = search.NewInMemoryEngine()
	}
	return &collection[T]{
		records:         []T{},
		sortField:       models.FieldTime,
		sortDirection:   models.Descending,
		serverFiltering: opts.ServerFiltering,
		projection:      projection.Options{Engine: engine, Language: opts.Language},
		logger:          logger,
	}
}

// Records returns a copy of the loaded records in server order.
func (c *collection[T]) Records() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recordsLocked()
}

func (c *collection[T]) recordsLocked() []T {
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Loading reports whether the current fetch is still outstanding.
func (c *collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last fetch failure message, or "" after a success.
func (c *collection[T]) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

func (c *collection[T]) SearchQuery() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchQuery
}

func (c *collection[T]) SortField() models.SortField {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortField
}

func (c *collection[T]) SortDirection() models.SortDirection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortDirection
}

// ServerFiltering reports which profile the store runs in.
func (c *collection[T]) ServerFiltering() bool {
	return c.serverFiltering
}

// SetSearch updates the search text without refetching.
func (c *collection[T]) SetSearch(query string) {
	c.mu.Lock()
	c.searchQuery = query
	c.mu.Unlock()
	c.notify()
}

// SetSorting sorts by field. Selecting the active field again flips the
// direction; a new field starts ascending.
func (c *collection[T]) SetSorting(field models.SortField) {
	c.mu.Lock()
	if c.sortField == field {
		c.sortDirection = c.sortDirection.Flip()
	} else {
		c.sortField = field
		c.sortDirection = models.Ascending
	}
	c.mu.Unlock()
	c.notify()
}

// View returns the loaded records filtered by the search text (unless the
// server already did that) and sorted by the active field.
func (c *collection[T]) View() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewLocked()
}

func (c *collection[T]) viewLocked() []T {
	return projection.Apply(c.records, c.queryLocked(), c.projection)
}

func (c *collection[T]) queryLocked() projection.Query {
	return projection.Query{
		Search:      c.searchQuery,
		Field:       c.sortField,
		Direction:   c.sortDirection,
		LocalFilter: !c.serverFiltering,
	}
}

// Subscribe registers fn to run after every state change. fn runs on the
// goroutine that made the change, outside the store's lock.
func (c *collection[T]) Subscribe(fn func()) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			defer c.listenersMu.Unlock()
			for i, l := range c.listeners {
				if l.id == id {
					c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *collection[T]) notify() {
	c.listenersMu.Lock()
	fns := make([]func(), len(c.listeners))
	for i, l := range c.listeners {
		fns[i] = l.fn
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// begin marks a new fetch as current and returns its sequence number.
func (c *collection[T]) begin(prepare func()) uint64 {
	c.mu.Lock()
	if prepare != nil {
		prepare()
	}
	c.seq++
	seq := c.seq
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
	return seq
}

// finish commits the outcome of fetch seq. Outcomes of superseded fetches
// are dropped. commit runs under the lock on success, rollback on failure.
func (c *collection[T]) finish(seq uint64, err error, commit, rollback func()) bool {
	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug().Err(err).Uint64("seq", seq).Msg("Dropping superseded response")
		return false
	}
	c.loading = false
	if err != nil {
		c.logger.Error().Err(err).Uint64("seq", seq).Msg("Fetch failed")
		c.errMsg = err.Error()
		if rollback != nil {
			rollback()
		}
	} else {
		commit()
		c.errMsg = ""
	}
	c.mu.Unlock()
	c.notify()
	return true
}

// run executes fetch between begin and finish. Panics inside fetch are
// recorded as the store's error like any other failure.
func run[T models.Record, R any](
	ctx context.Context,
	c *collection[T],
	prepare func(),
	fetch func(context.Context) (R, error),
	commit func(R),
	rollback func(),
) {
	seq := c.begin(prepare)

	var (
		result R
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("unexpected failure: %v", r)
			}
		}()
		result, err = fetch(ctx)
	}()

	c.finish(seq, err, func() { commit(result) }, rollback)
}
