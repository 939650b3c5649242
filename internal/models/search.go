// Package models defines core data structures for routing, search results, and stored records.
package models

import "fmt"

// SearchType identifies a search strategy and the provenance of a result.
type SearchType string

const (
	// SearchTypeVector is semantic similarity search over embedded chunks.
	SearchTypeVector SearchType = "vector"
	// SearchTypeHybrid is a weighted blend of vector and keyword search.
	SearchTypeHybrid SearchType = "hybrid"
	// SearchTypeKeyword is lexical (BM25-style) search over raw text.
	SearchTypeKeyword SearchType = "keyword"
	// SearchTypeGraph is entity-relationship fact lookup from the knowledge graph.
	SearchTypeGraph SearchType = "graph"
)

// SearchTypes lists all search types in the canonical order used for
// deterministic iteration (confidence maps, selection, reasoning assembly).
var SearchTypes = []SearchType{SearchTypeVector, SearchTypeHybrid, SearchTypeKeyword, SearchTypeGraph}

// ParseSearchType converts a string to a SearchType.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(s) {
	case SearchTypeVector, SearchTypeHybrid, SearchTypeKeyword, SearchTypeGraph:
		return SearchType(s), nil
	}
	return "", fmt.Errorf("unknown search type %q", s)
}

// RoutingDecision is the router's verdict for one query. It is constructed
// once per query and read-only afterwards.
type RoutingDecision struct {
	// SearchTypes are the selected strategies, highest confidence first. Never empty.
	SearchTypes []SearchType `json:"search_types"`
	// ConfidenceScores holds a score in [0,1] for every search type, selected or not.
	ConfidenceScores map[SearchType]float64 `json:"confidence_scores"`
	// Alpha is the hybrid balance: 1.0 = pure semantic, 0.0 = pure keyword.
	Alpha float64 `json:"alpha"`
	// Reasoning describes which signals triggered the decision. Never empty.
	Reasoning string `json:"reasoning"`
}

// Includes reports whether st was selected.
func (d *RoutingDecision) Includes(st SearchType) bool {
	for _, t := range d.SearchTypes {
		if t == st {
			return true
		}
	}
	return false
}

// NeedsDocuments reports whether the decision requires the document store
// (vector, hybrid, and keyword all dispatch to the same backend family).
func (d *RoutingDecision) NeedsDocuments() bool {
	return d.Includes(SearchTypeVector) || d.Includes(SearchTypeHybrid) || d.Includes(SearchTypeKeyword)
}

// NeedsGraph reports whether the decision requires the graph store.
func (d *RoutingDecision) NeedsGraph() bool {
	return d.Includes(SearchTypeGraph)
}

// HybridBalance is the vector/keyword weighting derived from Alpha.
type HybridBalance struct {
	Alpha         float64 `json:"alpha"`
	VectorWeight  float64 `json:"vector_weight"`
	KeywordWeight float64 `json:"keyword_weight"`
}

// RoutingExplanation is a UI-facing view of a RoutingDecision.
type RoutingExplanation struct {
	SelectedDatabases []SearchType           `json:"selected_databases"`
	ConfidenceScores  map[SearchType]float64 `json:"confidence_scores"`
	HybridBalance     HybridBalance          `json:"hybrid_balance"`
	Reasoning         string                 `json:"reasoning"`
	Recommendation    string                 `json:"recommendation"`
}
