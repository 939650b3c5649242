//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/shirabe/pkg/utils"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// ONNXEmbedder runs a sentence-transformer ONNX model through onnxruntime.
// Sessions are not safe for concurrent Run calls, so a mutex serializes them.
type ONNXEmbedder struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	tokenizer  *Tokenizer
	dimensions int
	maxTokens  int
}

// NewONNXEmbedder loads the model at modelPath. The model is expected to take
// input_ids, attention_mask and token_type_ids and produce token embeddings
// of the given dimensions.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("embedding model not found at %s: %w", modelPath, err)
	}

	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("initializing onnxruntime: %w", ortInitErr)
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil)
	if err != nil {
		return nil, fmt.Errorf("loading embedding model: %w", err)
	}

	return &ONNXEmbedder{
		session:    session,
		tokenizer:  NewTokenizer(maxTokens),
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Embed runs the model on a single text and mean-pools the token embeddings.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, mask := e.tokenizer.Tokenize(text)

	e.mu.Lock()
	defer e.mu.Unlock()

	shape := ort.NewShape(1, int64(e.maxTokens))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("creating input tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("creating mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	typeTensor, err := ort.NewTensor(shape, make([]int64, e.maxTokens))
	if err != nil {
		return nil, fmt.Errorf("creating type tensor: %w", err)
	}
	defer typeTensor.Destroy()

	outTensor, err := ort.NewTensor(
		ort.NewShape(1, int64(e.maxTokens), int64(e.dimensions)),
		make([]float32, e.maxTokens*e.dimensions))
	if err != nil {
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}
	defer outTensor.Destroy()

	err = e.session.Run(
		[]ort.ArbitraryTensor{idsTensor, maskTensor, typeTensor},
		[]ort.ArbitraryTensor{outTensor})
	if err != nil {
		return nil, fmt.Errorf("running embedding model: %w", err)
	}

	vec := e.meanPool(outTensor.GetData(), mask)
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds each text in turn. Batched inference is not worth the
// padding waste at the batch sizes indexing produces.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// meanPool averages token embeddings over the attended positions.
func (e *ONNXEmbedder) meanPool(hidden []float32, mask []int64) []float32 {
	vec := make([]float32, e.dimensions)
	var count float32
	for pos := 0; pos < e.maxTokens && (pos+1)*e.dimensions <= len(hidden); pos++ {
		if mask[pos] == 0 {
			continue
		}
		row := hidden[pos*e.dimensions : (pos+1)*e.dimensions]
		for i, v := range row {
			vec[i] += v
		}
		count++
	}
	if count > 0 {
		for i := range vec {
			vec[i] /= count
		}
	}
	return vec
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close releases the onnxruntime session.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}
