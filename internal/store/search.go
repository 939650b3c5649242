package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hyperjump/shirabe/internal/backends"
)

// VectorSearch embeds the query and returns the most similar chunks.
func (s *DocumentStore) VectorSearch(ctx context.Context, query string, limit int) ([]backends.RawHit, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectors.Search(ctx, queryVec, limit)
	if err != nil {
		return nil, err
	}

	out := make([]backends.RawHit, 0, len(hits))
	for _, hit := range hits {
		raw, err := s.chunkHit(ctx, hit.ID, hit.Score)
		if err != nil {
			// Index and database can briefly disagree after a delete.
			s.logger.Debug("skipping stale vector hit",
				zap.String("chunk_id", hit.ID), zap.Error(err))
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// KeywordSearch returns chunks by BM25 relevance.
func (s *DocumentStore) KeywordSearch(ctx context.Context, query string, limit int) ([]backends.RawHit, error) {
	hits, err := s.keyword.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	out := make([]backends.RawHit, 0, len(hits))
	for _, hit := range hits {
		raw, err := s.chunkHit(ctx, hit.ID, hit.Score)
		if err != nil {
			s.logger.Debug("skipping stale keyword hit",
				zap.String("chunk_id", hit.ID), zap.Error(err))
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// HybridSearch fuses keyword and vector relevance per chunk. textWeight is
// the keyword emphasis: 1.0 pure keyword, 0.0 pure vector. BM25 scores are
// unbounded, so they are max-normalized into [0, 1] before fusing with
// cosine similarities.
func (s *DocumentStore) HybridSearch(ctx context.Context, query string, limit int, textWeight float64) ([]backends.RawHit, error) {
	if textWeight < 0 {
		textWeight = 0
	}
	if textWeight > 1 {
		textWeight = 1
	}

	// Over-fetch from each side so the fused top-limit is stable.
	fetchLimit := limit * 2
	if fetchLimit < 20 {
		fetchLimit = 20
	}

	kwHits, err := s.keyword.Search(ctx, query, fetchLimit)
	if err != nil {
		return nil, err
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	vecHits, err := s.vectors.Search(ctx, queryVec, fetchLimit)
	if err != nil {
		return nil, err
	}

	var maxKeyword float64
	for _, hit := range kwHits {
		if hit.Score > maxKeyword {
			maxKeyword = hit.Score
		}
	}

	fused := make(map[string]float64)
	for _, hit := range kwHits {
		normalized := 0.0
		if maxKeyword > 0 {
			normalized = hit.Score / maxKeyword
		}
		fused[hit.ID] += textWeight * normalized
	}
	for _, hit := range vecHits {
		fused[hit.ID] += (1 - textWeight) * hit.Score
	}

	type scored struct {
		id    string
		score float64
	}
	ranked := make([]scored, 0, len(fused))
	for id, score := range fused {
		ranked = append(ranked, scored{id: id, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id < ranked[j].id
	})
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}

	out := make([]backends.RawHit, 0, len(ranked))
	for _, r := range ranked {
		raw, err := s.chunkHit(ctx, r.id, r.score)
		if err != nil {
			s.logger.Debug("skipping stale hybrid hit",
				zap.String("chunk_id", r.id), zap.Error(err))
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

// chunkHit loads a chunk with its document provenance and shapes it as a
// backend record.
func (s *DocumentStore) chunkHit(ctx context.Context, chunkID string, score float64) (backends.RawHit, error) {
	var content, docID, title, source, metadataJSON string
	var chunkIndex int
	err := s.db.QueryRowContext(ctx,
		`SELECT c.content, c.chunk_index, d.id, d.title, d.source, d.metadata
		 FROM document_chunks c JOIN documents d ON c.document_id = d.id
		 WHERE c.id = ?`, chunkID,
	).Scan(&content, &chunkIndex, &docID, &title, &source, &metadataJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chunk not found: %s", chunkID)
	}
	if err != nil {
		return nil, err
	}

	metadata := map[string]interface{}{}
	if metadataJSON != "" {
		_ = json.Unmarshal([]byte(metadataJSON), &metadata)
	}
	metadata["chunk_id"] = chunkID
	metadata["document_id"] = docID

	return backends.RawHit{
		"content":         content,
		"score":           score,
		"metadata":        metadata,
		"document_title":  title,
		"document_source": source,
		"chunk_index":     chunkIndex,
	}, nil
}
