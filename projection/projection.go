// Package projection derives read-only views (filter, then stable sort) from a
// record slice. Nothing here mutates its input.
package projection

import (
	"cmp"
	"slices"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"stock-ratings/models"
	"stock-ratings/search"
)

// Query is everything a view depends on besides the records themselves.
type Query struct {
	Search      string
	Field       models.SortField
	Direction   models.SortDirection
	LocalFilter bool // false when the server already applied Search
}

type Options struct {
	Engine   search.Engine // nil means search.InMemoryEngine
	Language language.Tag  // collation locale for string fields
}

// Apply filters (when q.LocalFilter is set) and then sorts records.
func Apply[T models.Record](records []T, q Query, opts Options) []T {
	view := records
	if q.LocalFilter {
		view = Filter(view, q.Search, opts.Engine)
	}
	return Sort(view, q.Field, q.Direction, opts.Language)
}

// Filter returns the records matching query, preserving order. An empty query
// keeps everything.
func Filter[T models.Record](records []T, query string, engine search.Engine) []T {
	if query == "" {
		return clone(records)
	}
	if engine == nil {
		engine = search.NewInMemoryEngine()
	}

	docs := make([][]string, len(records))
	for i, r := range records {
		docs[i] = r.SearchText()
	}

	idx := engine.Match(query, docs)
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		out = append(out, records[i])
	}
	return out
}

// Sort returns a stably sorted copy of records.
func Sort[T models.Record](records []T, field models.SortField, dir models.SortDirection, lang language.Tag) []T {
	out := clone(records)
	if len(out) < 2 {
		return out
	}

	c := newComparator(field, lang)
	slices.SortStableFunc(out, func(a, b T) int {
		r := c.compare(a, b)
		if dir == models.Descending {
			return -r
		}
		return r
	})
	return out
}

func clone[T any](records []T) []T {
	out := make([]T, len(records))
	copy(out, records)
	return out
}

type comparator struct {
	field    models.SortField
	collator *collate.Collator
}

// A collator keeps internal buffers, so each Sort call gets its own.
func newComparator(field models.SortField, lang language.Tag) *comparator {
	if lang == language.Und {
		lang = language.English
	}
	return &comparator{field: field, collator: collate.New(lang)}
}

func (c *comparator) compare(a, b models.Record) int {
	av, aok := a.Value(c.field)
	bv, bok := b.Value(c.field)
	if !aok || !bok {
		return 0
	}

	if c.field == models.FieldTime {
		return cmp.Compare(epochMillis(av), epochMillis(bv))
	}

	switch x := av.(type) {
	case string:
		if y, ok := bv.(string); ok {
			return c.collator.CompareString(x, y)
		}
	case float64:
		if y, ok := bv.(float64); ok {
			return cmp.Compare(x, y)
		}
	}
	return 0
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// epochMillis parses an ISO-8601 value. Anything unparsable sorts as epoch 0.
func epochMillis(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
