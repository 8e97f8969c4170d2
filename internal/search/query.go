package search

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
// UserID is mandatory: results never cross an owner boundary.
type SearchParams struct {
	UserID string // Owner scope (required)
	Query  string // User's search query

	// Filters
	MaxTimeMinutes int     // Maximum cooking time (0 = unbounded)
	MaxPrice       float64 // Maximum price (0 = unbounded)

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "title", "recent", "time"
	SortOrder string // "asc", "desc"

	// Options
	Highlight bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Title       string            `json:"title"`
	Tags        []string          `json:"tags,omitempty"`
	Ingredients []string          `json:"ingredients,omitempty"`
	TimeMinutes int               `json:"time_minutes,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query scoped to a single owner.
func (s *RecipeIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("search requires a user id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchQuery := buildSearchQuery(params)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
	}

	searchRequest.Fields = []string{
		"id", "title", "tags", "ingredients", "time_minutes",
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		searchHit.Tags = stringsField(hit.Fields["tags"])
		searchHit.Ingredients = stringsField(hit.Fields["ingredients"])
		if tm, ok := hit.Fields["time_minutes"].(float64); ok {
			searchHit.TimeMinutes = int(tm)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// stringsField extracts a stored field that Bleve returns as either a
// single string or a []interface{} depending on cardinality.
func stringsField(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Owner scope - a hard term filter, never optional
	ownerQuery := bleve.NewTermQuery(params.UserID)
	ownerQuery.SetField("user_id")
	queries = append(queries, ownerQuery)

	// Main text query across title, tags, and ingredients
	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost
		titleMatch := bleve.NewMatchQuery(params.Query)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		tagMatch := bleve.NewMatchQuery(params.Query)
		tagMatch.SetField("tags")
		tagMatch.SetBoost(1.5)
		textQueries = append(textQueries, tagMatch)

		ingredientMatch := bleve.NewMatchQuery(params.Query)
		ingredientMatch.SetField("ingredients")
		ingredientMatch.SetBoost(1.5)
		textQueries = append(textQueries, ingredientMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		// Fuzzy matching for typo tolerance on title
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Cooking time filter
	if params.MaxTimeMinutes > 0 {
		min := float64(0)
		max := float64(params.MaxTimeMinutes)
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("time_minutes")
		queries = append(queries, rangeQuery)
	}

	// Price filter
	if params.MaxPrice > 0 {
		min := float64(0)
		max := params.MaxPrice
		if max == 0 {
			max = math.MaxFloat64
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("price")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-title"})
		} else {
			req.SortBy([]string{"title"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	case "time":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-time_minutes"})
		} else {
			req.SortBy([]string{"time_minutes"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}
