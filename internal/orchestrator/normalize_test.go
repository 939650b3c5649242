package orchestrator

import (
	"testing"

	"github.com/hyperjump/shirabe/internal/backends"
	"github.com/hyperjump/shirabe/internal/models"
)

func TestNormalizeDocumentHit_Defaults(t *testing.T) {
	got := normalizeDocumentHit(backends.RawHit{}, models.SearchTypeVector)
	if got.Content != "" {
		t.Errorf("content = %q, want empty", got.Content)
	}
	if got.DocumentTitle != "Unknown" || got.DocumentSource != "Unknown" {
		t.Errorf("provenance defaults = %q/%q, want Unknown/Unknown", got.DocumentTitle, got.DocumentSource)
	}
	if got.Score != 0 || got.ChunkIndex != 0 {
		t.Errorf("numeric defaults = %v/%v, want zeros", got.Score, got.ChunkIndex)
	}
	if got.Metadata == nil {
		t.Error("metadata should default to an empty map, not nil")
	}
	if got.SourceDatabase != models.SourceDocuments {
		t.Errorf("source database = %q", got.SourceDatabase)
	}
}

func TestNormalizeDocumentHit_SimilarityFallback(t *testing.T) {
	got := normalizeDocumentHit(backends.RawHit{"similarity": 0.83}, models.SearchTypeVector)
	if got.Score != 0.83 {
		t.Errorf("score = %v, want similarity fallback 0.83", got.Score)
	}
	// An explicit score wins over similarity.
	got = normalizeDocumentHit(backends.RawHit{"score": 0.5, "similarity": 0.9}, models.SearchTypeVector)
	if got.Score != 0.5 {
		t.Errorf("score = %v, want explicit score 0.5", got.Score)
	}
	// Even an explicit zero: similarity fills in only when score is absent.
	got = normalizeDocumentHit(backends.RawHit{"score": 0.0, "similarity": 0.9}, models.SearchTypeVector)
	if got.Score != 0 {
		t.Errorf("score = %v, want explicit zero kept over similarity", got.Score)
	}
}

func TestNormalizeDocumentHit_FieldTypes(t *testing.T) {
	hit := backends.RawHit{
		"content":     "chunk text",
		"score":       float32(0.25),
		"chunk_index": int64(4),
		"metadata":    map[string]interface{}{"page": 2},
	}
	got := normalizeDocumentHit(hit, models.SearchTypeKeyword)
	if got.Score != 0.25 {
		t.Errorf("score = %v, want float32 widened", got.Score)
	}
	if got.ChunkIndex != 4 {
		t.Errorf("chunk index = %v, want 4", got.ChunkIndex)
	}
	if got.Metadata["page"] != 2 {
		t.Errorf("metadata not carried: %v", got.Metadata)
	}
}

func TestNormalizeGraphHit(t *testing.T) {
	hit := backends.RawHit{
		"fact":             "Fed RAISED rates",
		"uuid":             "f-42",
		"valid_at":         "2024-10-01T00:00:00Z",
		"source_node_uuid": "node-fed",
		"timeline_context": "valid since 2024-10-01",
	}
	got := normalizeGraphHit(hit)
	if got.Content != "Fed RAISED rates" {
		t.Errorf("content = %q", got.Content)
	}
	if got.Score != graphFactScore {
		t.Errorf("score = %v, want the graph constant", got.Score)
	}
	if got.SourceDatabase != models.SourceGraph || got.SearchType != models.SearchTypeGraph {
		t.Errorf("provenance = %q/%q", got.SourceDatabase, got.SearchType)
	}
	if got.DocumentTitle != "Knowledge Graph" {
		t.Errorf("title = %q", got.DocumentTitle)
	}
	if got.Metadata["uuid"] != "f-42" || got.Metadata["timeline_context"] != "valid since 2024-10-01" {
		t.Errorf("metadata = %v", got.Metadata)
	}
	if got.ChunkIndex != 0 {
		t.Errorf("chunk index = %d, want 0 for graph facts", got.ChunkIndex)
	}
}
