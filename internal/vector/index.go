// Package vector provides an embedding index with cosine similarity search.
package vector

import "context"

// Index stores chunk embeddings and answers nearest-neighbor queries.
type Index interface {
	Upsert(ctx context.Context, id string, vector []float32) error
	Search(ctx context.Context, query []float32, k int) ([]Hit, error)
	Delete(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Hit is a single nearest-neighbor match. ID refers to a chunk.
type Hit struct {
	ID    string
	Score float64
}
