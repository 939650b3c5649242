package orchestrator

import (
	"strings"
	"testing"

	"github.com/hyperjump/shirabe/internal/models"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"case and whitespace", "  The Fed Raised Rates  ", "the fed raised rates", true},
		{"trailing variation beyond prefix", strings.Repeat("a", 210), strings.Repeat("a", 200) + "different tail", true},
		{"variation inside prefix", "alpha beta", "alpha gamma", false},
		{"multibyte safe", strings.Repeat("é", 300), strings.Repeat("é", 300), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fingerprint(tt.a, 200) == fingerprint(tt.b, 200)
			if got != tt.same {
				t.Errorf("fingerprint equality = %v, want %v", got, tt.same)
			}
		})
	}
}

func TestMergeResults_KeepsDistinctResults(t *testing.T) {
	in := []models.SearchResult{
		{Content: "first", Score: 0.5, SearchType: models.SearchTypeVector},
		{Content: "second", Score: 0.9, SearchType: models.SearchTypeKeyword},
	}
	out := mergeResults(in, 200)
	if len(out) != 2 {
		t.Fatalf("merged %d results, want 2", len(out))
	}
	// Merge preserves first-appearance order; ranking happens later.
	if out[0].Content != "first" || out[1].Content != "second" {
		t.Errorf("merge reordered results: %v, %v", out[0].Content, out[1].Content)
	}
}

func TestMergeResults_SurvivorAndMarkers(t *testing.T) {
	in := []models.SearchResult{
		{
			Content:        "shared content",
			Score:          0.4,
			SourceDatabase: models.SourceDocuments,
			SearchType:     models.SearchTypeKeyword,
			Metadata:       map[string]interface{}{"page": 1},
		},
		{
			Content:        "Shared Content",
			Score:          0.9,
			SourceDatabase: models.SourceDocuments,
			SearchType:     models.SearchTypeVector,
			Metadata:       map[string]interface{}{"section": "intro"},
		},
		{
			Content:        "shared content",
			Score:          0.2,
			SourceDatabase: models.SourceGraph,
			SearchType:     models.SearchTypeGraph,
			Metadata:       map[string]interface{}{"uuid": "f-1"},
		},
	}
	out := mergeResults(in, 200)
	if len(out) != 1 {
		t.Fatalf("merged %d results, want 1", len(out))
	}
	got := out[0]
	if got.Score != 0.9 || got.SearchType != models.SearchTypeVector {
		t.Errorf("survivor = %+v, want the 0.9 vector result", got)
	}
	for _, key := range []string{"page", "section", "uuid"} {
		if _, ok := got.Metadata[key]; !ok {
			t.Errorf("metadata union missing %q", key)
		}
	}
	dbs := got.Metadata["source_databases"].([]string)
	if len(dbs) != 2 {
		t.Errorf("source_databases = %v, want both stores", dbs)
	}
	types := got.Metadata["search_types"].([]string)
	if len(types) != 3 {
		t.Errorf("search_types = %v, want all three contributors", types)
	}
	if got.Metadata["duplicate_count"] != 3 {
		t.Errorf("duplicate_count = %v, want 3", got.Metadata["duplicate_count"])
	}
	// Inputs must not be mutated.
	if _, leaked := in[1].Metadata["duplicate_count"]; leaked {
		t.Error("merge mutated an input result's metadata")
	}
}

func TestRankAndLimit_GraphBoostAndTieBreak(t *testing.T) {
	in := []models.SearchResult{
		{Content: "keyword", Score: 0.9, SourceDatabase: models.SourceDocuments, SearchType: models.SearchTypeKeyword},
		{Content: "vector", Score: 0.9, SourceDatabase: models.SourceDocuments, SearchType: models.SearchTypeVector},
		{Content: "fact", Score: 0.85, SourceDatabase: models.SourceGraph, SearchType: models.SearchTypeGraph},
		{Content: "hybrid", Score: 0.9, SourceDatabase: models.SourceDocuments, SearchType: models.SearchTypeHybrid},
	}
	out := rankAndLimit(in, 10, 0.1)
	want := []string{"fact", "vector", "hybrid", "keyword"}
	for i, content := range want {
		if out[i].Content != content {
			t.Errorf("rank %d = %q, want %q (full order: %v)", i, out[i].Content, content, contents(out))
		}
	}
}

func TestRankAndLimit_Truncates(t *testing.T) {
	in := make([]models.SearchResult, 7)
	for i := range in {
		in[i] = models.SearchResult{Content: strings.Repeat("c", i+1), Score: float64(i)}
	}
	out := rankAndLimit(in, 4, 0.1)
	if len(out) != 4 {
		t.Fatalf("got %d results, want 4", len(out))
	}
	if out[0].Score != 6 {
		t.Errorf("top score = %v, want the highest kept", out[0].Score)
	}
	if len(in) != 7 {
		t.Error("rankAndLimit mutated its input length")
	}
}

func contents(results []models.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Content
	}
	return out
}
