//go:build !cgo

package embedding

import "fmt"

// NewONNXEmbedder requires cgo for onnxruntime bindings. Builds without cgo
// get this stub so callers can fall back to the mock embedder.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (Embedder, error) {
	return nil, fmt.Errorf("ONNX embedding requires a cgo-enabled build")
}
