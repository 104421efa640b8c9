package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// ErrEmptyQuery is returned for a blank query string.
var ErrEmptyQuery = errors.New("empty search query")

const defaultLimit = 10

var resultFields = []string{"kind", "id", "studentId", "category", "point", "memo", "content"}

// Search runs query over every indexed document.
func (i *Indexer) Search(q string, limit int) ([]Hit, error) {
	return i.SearchFiltered(q, Filter{}, limit)
}

// SearchFiltered runs query restricted to documents matching f.
func (i *Indexer) SearchFiltered(q string, f Filter, limit int) ([]Hit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	var searchQuery query.Query = buildTextQuery(q)
	if filters := filterQueries(f); len(filters) > 0 {
		searchQuery = bleve.NewConjunctionQuery(append([]query.Query{searchQuery}, filters...)...)
	}

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	searchRequest.Fields = resultFields

	i.mu.RLock()
	results, err := i.bleveIndex.Search(searchRequest)
	i.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}
	return convertBleveResults(results), nil
}

// buildTextQuery matches the analyzed text, and additionally each term by
// prefix and with one edit of fuzziness so partial words still hit.
func buildTextQuery(q string) query.Query {
	disjuncts := []query.Query{bleve.NewMatchQuery(q)}
	for _, term := range strings.Fields(strings.ToLower(q)) {
		disjuncts = append(disjuncts, bleve.NewPrefixQuery(term))

		fuzzy := bleve.NewFuzzyQuery(term)
		fuzzy.SetFuzziness(1)
		disjuncts = append(disjuncts, fuzzy)
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

func filterQueries(f Filter) []query.Query {
	var out []query.Query
	add := func(field, value string) {
		if value == "" {
			return
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		out = append(out, tq)
	}
	add("kind", f.Kind)
	add("category", f.Category)
	add("studentId", f.StudentID)
	return out
}

func convertBleveResults(results *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hit := Hit{Score: h.Score}
		hit.Kind, _ = h.Fields["kind"].(string)
		hit.ID, _ = h.Fields["id"].(string)
		hit.StudentID, _ = h.Fields["studentId"].(string)
		hit.Category, _ = h.Fields["category"].(string)

		if hit.Kind == KindGenerated {
			hit.Text, _ = h.Fields["content"].(string)
		} else {
			point, _ := h.Fields["point"].(string)
			memo, _ := h.Fields["memo"].(string)
			hit.Text = point
			if memo != "" {
				hit.Text = point + ": " + memo
			}
		}
		hits = append(hits, hit)
	}
	return hits
}
