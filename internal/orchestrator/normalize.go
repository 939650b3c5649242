package orchestrator

import (
	"github.com/hyperjump/shirabe/internal/backends"
	"github.com/hyperjump/shirabe/internal/models"
)

// graphFactScore is the constant relevance assigned to graph facts, which
// carry no similarity score of their own.
const graphFactScore = 1.0

// normalizeHits converts raw backend records into SearchResult values,
// filling defaults for missing fields. This is the only place field-presence
// checks happen; everything downstream sees the fixed shape.
func normalizeHits(hits []backends.RawHit, searchType models.SearchType) []models.SearchResult {
	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		if searchType == models.SearchTypeGraph {
			results = append(results, normalizeGraphHit(hit))
		} else {
			results = append(results, normalizeDocumentHit(hit, searchType))
		}
	}
	return results
}

func normalizeDocumentHit(hit backends.RawHit, searchType models.SearchType) models.SearchResult {
	// similarity is the fallback only when score is absent; an explicit
	// zero score is a real value and must survive.
	score, ok := floatField(hit, "score")
	if !ok {
		score, _ = floatField(hit, "similarity")
	}
	return models.SearchResult{
		Content:        stringField(hit, "content", ""),
		SourceDatabase: models.SourceDocuments,
		SearchType:     searchType,
		Score:          score,
		Metadata:       mapField(hit, "metadata"),
		DocumentTitle:  stringField(hit, "document_title", "Unknown"),
		DocumentSource: stringField(hit, "document_source", "Unknown"),
		ChunkIndex:     intField(hit, "chunk_index"),
	}
}

func normalizeGraphHit(hit backends.RawHit) models.SearchResult {
	metadata := map[string]interface{}{
		"uuid":             stringField(hit, "uuid", ""),
		"valid_at":         stringField(hit, "valid_at", ""),
		"invalid_at":       stringField(hit, "invalid_at", ""),
		"source_node_uuid": stringField(hit, "source_node_uuid", ""),
		"timeline_context": stringField(hit, "timeline_context", ""),
	}
	return models.SearchResult{
		Content:        stringField(hit, "fact", ""),
		SourceDatabase: models.SourceGraph,
		SearchType:     models.SearchTypeGraph,
		Score:          graphFactScore,
		Metadata:       metadata,
		DocumentTitle:  "Knowledge Graph",
		DocumentSource: models.SourceGraph,
	}
}

func stringField(hit backends.RawHit, key, fallback string) string {
	if v, ok := hit[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func floatField(hit backends.RawHit, key string) (float64, bool) {
	switch v := hit[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intField(hit backends.RawHit, key string) int {
	switch v := hit[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func mapField(hit backends.RawHit, key string) map[string]interface{} {
	if v, ok := hit[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}
