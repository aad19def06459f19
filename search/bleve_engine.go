package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/rs/zerolog"
)

// BleveEngine answers the same substring question as InMemoryEngine, using a
// throw-away in-memory bleve index built for each evaluation. Every field is
// indexed as one lower-cased keyword term so a "*q*" wildcard is an exact
// substring test.
type BleveEngine struct {
	fallback *InMemoryEngine
	logger   zerolog.Logger
}

func NewBleveEngine(logger zerolog.Logger) *BleveEngine {
	return &BleveEngine{
		fallback: NewInMemoryEngine(),
		logger:   logger,
	}
}

// docFields are the index field names, positionally matching the doc slices.
var docFields = []string{"f0", "f1", "f2", "f3"}

func (e *BleveEngine) Match(q string, docs [][]string) []int {
	// Wildcard metacharacters would change the meaning of the query.
	if strings.ContainsAny(q, "*?") || len(docs) == 0 {
		return e.fallback.Match(q, docs)
	}

	hits, err := e.search(strings.ToLower(q), docs)
	if err != nil {
		e.logger.Warn().Err(err).Str("query", q).Msg("bleve filter failed, using in-memory scan")
		return e.fallback.Match(q, docs)
	}
	return hits
}

func (e *BleveEngine) search(q string, docs [][]string) ([]int, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	defer index.Close()

	batch := index.NewBatch()
	for i, fields := range docs {
		doc := make(map[string]interface{}, len(fields))
		for j, f := range fields {
			if j >= len(docFields) {
				break
			}
			doc[docFields[j]] = strings.ToLower(f)
		}
		if err := batch.Index(strconv.Itoa(i), doc); err != nil {
			return nil, fmt.Errorf("failed to add to batch: %w", err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to execute batch: %w", err)
	}

	// One wildcard per field, OR-ed together.
	var disjuncts []query.Query
	for _, name := range docFields {
		wq := bleve.NewWildcardQuery("*" + q + "*")
		wq.SetField(name)
		disjuncts = append(disjuncts, wq)
	}

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(disjuncts...))
	req.Size = len(docs)

	res, err := index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil {
			return nil, fmt.Errorf("unexpected document id %q", hit.ID)
		}
		results = append(results, i)
	}
	// Hits come back in relevance order; callers expect input order.
	sort.Ints(results)
	return results, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	for _, name := range docFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = false
		fm.IncludeTermVectors = false
		docMapping.AddFieldMappingsAt(name, fm)
	}
	indexMapping.DefaultMapping = docMapping

	return indexMapping
}
