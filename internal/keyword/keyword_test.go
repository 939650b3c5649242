package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *ChunkIndex {
	t.Helper()
	idx, err := NewChunkIndex(filepath.Join(t.TempDir(), "keyword.bleve"))
	if err != nil {
		t.Fatalf("NewChunkIndex failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestChunkIndex_SearchMatchesExactTerms(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	chunks := map[string]string{
		"c1": "Q3 2024 revenue grew to $500 million",
		"c2": "The central bank held interest rates steady",
		"c3": "Quarterly revenue guidance was revised upward",
	}
	for id, content := range chunks {
		if err := idx.Index(ctx, id, content, "earnings report"); err != nil {
			t.Fatalf("Index(%s) failed: %v", id, err)
		}
	}

	hits, err := idx.Search(ctx, "Q3 revenue", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hits for Q3 revenue")
	}
	if hits[0].ID != "c1" {
		t.Errorf("top hit = %s, want c1 (matches both terms)", hits[0].ID)
	}
	if hits[0].Score <= 0 {
		t.Errorf("top score = %v, want positive", hits[0].Score)
	}
}

func TestChunkIndex_TitleIsSearchable(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Index(ctx, "c1", "body text without the term", "inflation outlook"); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	hits, err := idx.Search(ctx, "inflation", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "c1" {
		t.Errorf("hits = %v, want c1 via title match", hits)
	}
}

func TestChunkIndex_Delete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	_ = idx.Index(ctx, "c1", "alpha content", "")
	_ = idx.Index(ctx, "c2", "alpha content too", "")
	if err := idx.Delete(ctx, []string{"c1"}); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	hits, _ := idx.Search(ctx, "alpha", 5)
	for _, h := range hits {
		if h.ID == "c1" {
			t.Error("deleted chunk still returned")
		}
	}
}

func TestChunkIndex_ReopenExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyword.bleve")
	ctx := context.Background()

	idx, err := NewChunkIndex(path)
	if err != nil {
		t.Fatalf("NewChunkIndex failed: %v", err)
	}
	_ = idx.Index(ctx, "c1", "persisted content", "")
	idx.Close()

	reopened, err := NewChunkIndex(path)
	if err != nil {
		t.Fatalf("reopening index failed: %v", err)
	}
	defer reopened.Close()
	hits, err := reopened.Search(ctx, "persisted", 5)
	if err != nil {
		t.Fatalf("Search after reopen failed: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits after reopen, want 1", len(hits))
	}
}

func TestChunkIndex_SearchZeroLimit(t *testing.T) {
	idx := newTestIndex(t)
	hits, err := idx.Search(context.Background(), "anything", 0)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %v, want nil for zero limit", hits)
	}
}
