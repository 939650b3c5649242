package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/embedding"
	"github.com/hyperjump/shirabe/internal/models"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Options{
		DatabasePath:     filepath.Join(dir, "documents.db"),
		KeywordIndexPath: filepath.Join(dir, "keyword.bleve"),
		VectorIndexPath:  filepath.Join(dir, "vectors.bin"),
		Embedder:         embedding.NewMockEmbedder(64),
		ChunkSize:        50,
		ChunkOverlap:     10,
		Logger:           zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDocumentStore_IndexAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.IndexDocument(ctx, models.DocumentInput{
		Title:    "Earnings Report",
		Source:   "filings/q3.txt",
		Content:  "Q3 2024 revenue grew to $500 million on strong cloud demand",
		Metadata: map[string]interface{}{"fiscal_year": 2024},
	})
	if err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}
	if doc.ID == "" {
		t.Fatal("expected a generated document ID")
	}

	got, err := s.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("GetDocument failed: %v", err)
	}
	if got.Title != "Earnings Report" || got.Source != "filings/q3.txt" {
		t.Errorf("document = %q/%q", got.Title, got.Source)
	}
	if got.Metadata["fiscal_year"] != float64(2024) {
		t.Errorf("metadata = %v, want fiscal_year via JSON round trip", got.Metadata)
	}

	docs, chunks, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if docs != 1 || chunks < 1 {
		t.Errorf("stats = %d docs / %d chunks", docs, chunks)
	}
}

func TestDocumentStore_KeywordSearchShape(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.IndexDocument(ctx, models.DocumentInput{
		Title:   "Rates Note",
		Source:  "notes/rates.txt",
		Content: "The central bank raised interest rates by 25 basis points",
	})
	if err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}

	hits, err := s.KeywordSearch(ctx, "interest rates", 5)
	if err != nil {
		t.Fatalf("KeywordSearch failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected keyword hits")
	}
	hit := hits[0]
	if !strings.Contains(hit["content"].(string), "interest rates") {
		t.Errorf("content = %v", hit["content"])
	}
	if hit["document_title"] != "Rates Note" || hit["document_source"] != "notes/rates.txt" {
		t.Errorf("provenance = %v/%v", hit["document_title"], hit["document_source"])
	}
	if hit["score"].(float64) <= 0 {
		t.Errorf("score = %v, want positive", hit["score"])
	}
	metadata := hit["metadata"].(map[string]interface{})
	if metadata["document_id"] != doc.ID {
		t.Errorf("metadata document_id = %v, want %s", metadata["document_id"], doc.ID)
	}
	if _, ok := metadata["chunk_id"]; !ok {
		t.Error("metadata missing chunk_id")
	}
}

func TestDocumentStore_VectorSearchFindsIndexedText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.IndexDocument(ctx, models.DocumentInput{
		Content: "inflation expectations remain anchored",
	}); err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}

	// The mock embedder is deterministic, so querying with the exact chunk
	// text must return it with similarity ~1.
	hits, err := s.VectorSearch(ctx, "inflation expectations remain anchored", 3)
	if err != nil {
		t.Fatalf("VectorSearch failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if score := hits[0]["score"].(float64); score < 0.999 {
		t.Errorf("score = %v, want ~1.0 for identical text", score)
	}
}

func TestDocumentStore_HybridSearchWeights(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.IndexDocument(ctx, models.DocumentInput{
		Content: "quarterly revenue guidance",
	}); err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}

	// Pure keyword weighting still returns fused hits.
	hits, err := s.HybridSearch(ctx, "revenue guidance", 5, 1.0)
	if err != nil {
		t.Fatalf("HybridSearch failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hybrid hits at textWeight 1.0")
	}
	// Pure vector weighting works too; the keyword side contributes nothing.
	hits, err = s.HybridSearch(ctx, "quarterly revenue guidance", 5, 0.0)
	if err != nil {
		t.Fatalf("HybridSearch failed: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected hybrid hits at textWeight 0.0")
	}
	if score := hits[0]["score"].(float64); score < 0.999 {
		t.Errorf("pure vector score = %v, want ~1.0 for identical text", score)
	}
}

func TestDocumentStore_ReindexReplacesChunks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.IndexDocument(ctx, models.DocumentInput{
		ID:      "doc-1",
		Content: "original obsolete wording",
	}); err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}
	if _, err := s.IndexDocument(ctx, models.DocumentInput{
		ID:      "doc-1",
		Content: "replacement wording entirely",
	}); err != nil {
		t.Fatalf("re-IndexDocument failed: %v", err)
	}

	hits, err := s.KeywordSearch(ctx, "obsolete", 5)
	if err != nil {
		t.Fatalf("KeywordSearch failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("old chunks still searchable after reindex: %v", hits)
	}
	docs, chunks, _ := s.Stats(ctx)
	if docs != 1 {
		t.Errorf("docs = %d, want 1", docs)
	}
	if chunks != 1 {
		t.Errorf("chunks = %d, want 1 after replacement", chunks)
	}
}

func TestDocumentStore_DeleteDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc, err := s.IndexDocument(ctx, models.DocumentInput{Content: "ephemeral content"})
	if err != nil {
		t.Fatalf("IndexDocument failed: %v", err)
	}
	if err := s.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	if _, err := s.GetDocument(ctx, doc.ID); err == nil {
		t.Error("expected error fetching a deleted document")
	}
	hits, _ := s.KeywordSearch(ctx, "ephemeral", 5)
	if len(hits) != 0 {
		t.Errorf("deleted document still searchable: %v", hits)
	}
	vecHits, _ := s.VectorSearch(ctx, "ephemeral content", 5)
	if len(vecHits) != 0 {
		t.Errorf("deleted document still in vector index: %v", vecHits)
	}
}

func TestDocumentStore_ListDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, content := range []string{"first doc", "second doc", "third doc"} {
		if _, err := s.IndexDocument(ctx, models.DocumentInput{Content: content}); err != nil {
			t.Fatalf("IndexDocument failed: %v", err)
		}
	}
	docs, err := s.ListDocuments(ctx, 0, 2)
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("got %d documents, want 2", len(docs))
	}
}

func TestDocumentStore_Ping(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
