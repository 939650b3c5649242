package models

import "time"

// Source database identifiers carried on normalized results.
const (
	// SourceDocuments is the document store (vector/keyword/hybrid searches).
	SourceDocuments = "vector-store"
	// SourceGraph is the knowledge-graph store.
	SourceGraph = "graph-store"
)

// SearchResult is one normalized hit from one backend. Score semantics are
// backend-local (similarity, BM25, or a constant for graph facts); scores are
// only comparable after ranking-time adjustment.
type SearchResult struct {
	Content        string                 `json:"content"`
	SourceDatabase string                 `json:"source_database"`
	SearchType     SearchType             `json:"search_type"`
	Score          float64                `json:"score"`
	Metadata       map[string]interface{} `json:"metadata"`
	DocumentTitle  string                 `json:"document_title"`
	DocumentSource string                 `json:"document_source"`
	ChunkIndex     int                    `json:"chunk_index"`
}

// OrchestratedResult is the complete output of one orchestration run.
// MergedResults is the contract surface for callers; SearchResults keeps the
// pre-merge hits for diagnostics.
type OrchestratedResult struct {
	Query           string           `json:"query"`
	RoutingDecision *RoutingDecision `json:"routing_decision"`
	// DatabasesQueried tags every backend task actually dispatched, including failed ones.
	DatabasesQueried []string       `json:"databases_queried"`
	SearchResults    []SearchResult `json:"search_results"`
	MergedResults    []SearchResult `json:"merged_results"`
	TotalResults     int            `json:"total_results"`
	// ProcessingTime is wall-clock seconds for the full pipeline.
	ProcessingTime float64 `json:"processing_time"`
	// Errors holds one human-readable description per failed backend task.
	Errors []string `json:"errors"`
}

// ResultSummary is an observability view over an OrchestratedResult.
type ResultSummary struct {
	Query               string              `json:"query"`
	TotalResults        int                 `json:"total_results"`
	ProcessingTime      float64             `json:"processing_time"`
	DatabasesQueried    []string            `json:"databases_queried"`
	SourceBreakdown     map[string]int      `json:"source_breakdown"`
	SearchTypeBreakdown map[SearchType]int  `json:"search_type_breakdown"`
	AverageScore        float64             `json:"average_score"`
	HasErrors           bool                `json:"has_errors"`
	ErrorCount          int                 `json:"error_count"`
	Routing             *RoutingExplanation `json:"routing_explanation,omitempty"`
}

// BackendHealth is the apparent state of one backend, without issuing a search.
type BackendHealth struct {
	Status string `json:"status"` // "connected", "disconnected", or "error"
	Detail string `json:"detail,omitempty"`
}

// HealthStatus reports connectivity of the orchestrator's collaborators.
type HealthStatus struct {
	Orchestrator string                   `json:"orchestrator"`
	Router       string                   `json:"router"`
	Backends     map[string]BackendHealth `json:"backends"`
	Timestamp    time.Time                `json:"timestamp"`
}
