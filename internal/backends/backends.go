// Package backends defines the search backend contract consumed by the
// orchestrator. Backends return loosely shaped records; the orchestrator owns
// normalization, so concrete stores stay free to evolve their schemas.
package backends

import "context"

// RawHit is one loosely shaped backend record. Field presence is not
// guaranteed; consumers must extract defensively.
type RawHit map[string]interface{}

// DocumentSearcher is the document-store capability: vector, keyword, and
// hybrid search over indexed chunks. An empty slice is a valid non-error
// outcome. Implementations must be safe for concurrent use.
type DocumentSearcher interface {
	// VectorSearch returns up to limit chunks by semantic similarity.
	VectorSearch(ctx context.Context, query string, limit int) ([]RawHit, error)
	// KeywordSearch returns up to limit chunks by lexical (BM25) relevance.
	KeywordSearch(ctx context.Context, query string, limit int) ([]RawHit, error)
	// HybridSearch blends keyword and semantic relevance. textWeight is the
	// keyword emphasis: 1.0 pure keyword, 0.0 pure semantic.
	HybridSearch(ctx context.Context, query string, limit int, textWeight float64) ([]RawHit, error)
}

// GraphSearcher is the knowledge-graph capability. Facts carry no relevance
// score; the orchestrator assigns a constant.
type GraphSearcher interface {
	// GraphSearch returns entity-relationship facts matching the query.
	// When includeTimeline is set, each hit carries a timeline_context field
	// rendered from the fact's validity window.
	GraphSearch(ctx context.Context, query string, includeTimeline bool) ([]RawHit, error)
}

// Pinger is optionally implemented by backends that can report connectivity
// without running a search.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Set is the capability set supplied to the orchestrator at construction.
// A nil field means the capability is absent and must be skipped at dispatch
// time, not called and caught.
type Set struct {
	Documents DocumentSearcher
	Graph     GraphSearcher
}

// HasDocuments reports whether the document store is available.
func (s Set) HasDocuments() bool { return s.Documents != nil }

// HasGraph reports whether the graph store is available.
func (s Set) HasGraph() bool { return s.Graph != nil }
