// Package keyword provides full-text chunk search backed by Bleve.
package keyword

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
)

// Hit is a single keyword search match. ID refers to a chunk.
type Hit struct {
	ID    string
	Score float64
}

// indexedChunk is the shape Bleve stores per chunk.
type indexedChunk struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// ChunkIndex is a Bleve-backed BM25 index over document chunks.
type ChunkIndex struct {
	index bleve.Index
}

// NewChunkIndex opens the index at path, creating it if absent. An existing
// index is reused as-is; if the mapping changes, remove the directory to
// force a rebuild.
func NewChunkIndex(path string) (*ChunkIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open keyword index: %w", openErr)
		}
		return &ChunkIndex{index: index}, nil
	}

	// Standard analyzer (lowercase + tokenize, no stemming) so exact terms
	// like ticker symbols and quarter labels match verbatim.
	textMapping := bleve.NewTextFieldMapping()
	textMapping.Analyzer = standard.Name

	chunkMapping := bleve.NewDocumentMapping()
	chunkMapping.AddFieldMappingsAt("content", textMapping)
	chunkMapping.AddFieldMappingsAt("title", textMapping)

	im := bleve.NewIndexMapping()
	im.AddDocumentMapping("chunk", chunkMapping)
	im.DefaultType = "chunk"
	im.DefaultMapping = chunkMapping

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create keyword index: %w", err)
	}
	return &ChunkIndex{index: index}, nil
}

// Index adds or replaces a chunk under id.
func (c *ChunkIndex) Index(ctx context.Context, id, content, title string) error {
	if err := c.index.Index(id, indexedChunk{Content: content, Title: title}); err != nil {
		return fmt.Errorf("index chunk %s: %w", id, err)
	}
	return nil
}

// Search runs a match query over content and title and returns up to limit
// hits, best first. Scores are raw BM25 values; callers normalize them when
// fusing with other signals.
func (c *ChunkIndex) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := bleve.NewMatchQuery(query)
	req := bleve.NewSearchRequest(q)
	req.Size = limit

	results, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	hits := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		hits[i] = Hit{ID: hit.ID, Score: hit.Score}
	}
	return hits, nil
}

// Delete removes the given chunk ids. Missing ids are ignored by Bleve.
func (c *ChunkIndex) Delete(ctx context.Context, ids []string) error {
	batch := c.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (c *ChunkIndex) Count() (uint64, error) {
	return c.index.DocCount()
}

// Close releases the underlying Bleve index.
func (c *ChunkIndex) Close() error {
	return c.index.Close()
}
