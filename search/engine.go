package search

import "strings"

// Engine decides which records match a free-text query.
//
// docs holds one entry per record with the record's searchable fields.
// Implementations return the indices of matching docs in ascending order.
type Engine interface {
	Match(query string, docs [][]string) []int
}

type InMemoryEngine struct{}

func NewInMemoryEngine() *InMemoryEngine {
	return &InMemoryEngine{}
}

// Match keeps a doc when the lower-cased query is a substring of any of its
// lower-cased fields.
func (e *InMemoryEngine) Match(query string, docs [][]string) []int {
	q := strings.ToLower(query)
	results := make([]int, 0, len(docs))
	for i, fields := range docs {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), q) {
				results = append(results, i)
				break
			}
		}
	}
	return results
}
