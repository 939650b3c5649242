// Package embedding produces vector embeddings for text, with an ONNX
// implementation behind the cgo build tag and a deterministic mock for tests
// and model-less deployments.
package embedding

import "context"

// Embedder produces vector embeddings for text. Implementations must be safe
// for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
