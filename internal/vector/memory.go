package vector

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryIndex is a brute-force in-memory index. Exhaustive scan is fine at
// the corpus sizes a single-node deployment holds; an ANN structure would
// only complicate deletes.
type MemoryIndex struct {
	mu         sync.RWMutex
	dimensions int
	vectors    map[string][]float32
}

// NewMemoryIndex creates an empty index for vectors of the given dimensions.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}
	return &MemoryIndex{
		dimensions: dimensions,
		vectors:    make(map[string][]float32),
	}, nil
}

// Upsert adds or replaces the vector stored under id.
func (m *MemoryIndex) Upsert(ctx context.Context, id string, vector []float32) error {
	if len(vector) != m.dimensions {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(vector), m.dimensions)
	}
	vec := make([]float32, m.dimensions)
	copy(vec, vector)

	m.mu.Lock()
	m.vectors[id] = vec
	m.mu.Unlock()
	return nil
}

// Search returns the k stored vectors most similar to query, best first.
// Vectors are expected to be L2-normalized, so the inner product is cosine
// similarity. Ties break on ID for deterministic ordering.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, want %d", len(query), m.dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	m.mu.RLock()
	hits := make([]Hit, 0, len(m.vectors))
	for id, vec := range m.vectors {
		var dot float64
		for i := range vec {
			dot += float64(query[i]) * float64(vec[i])
		}
		hits = append(hits, Hit{ID: id, Score: dot})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes the given ids. Missing ids are ignored.
func (m *MemoryIndex) Delete(ctx context.Context, ids []string) error {
	m.mu.Lock()
	for _, id := range ids {
		delete(m.vectors, id)
	}
	m.mu.Unlock()
	return nil
}

type indexSnapshot struct {
	Dimensions int
	Vectors    map[string][]float32
}

// Save writes the index contents to path, creating parent directories.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	// Copy the map under the lock: encoding outside it would race a
	// concurrent Upsert. Sharing the value slices is fine, Upsert replaces
	// them wholesale and never mutates in place.
	m.mu.RLock()
	snap := indexSnapshot{
		Dimensions: m.dimensions,
		Vectors:    make(map[string][]float32, len(m.vectors)),
	}
	for id, vec := range m.vectors {
		snap.Vectors[id] = vec
	}
	m.mu.RUnlock()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return nil
}

// Load replaces the index contents with the snapshot at path. A missing file
// leaves the index unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	var snap indexSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	if snap.Dimensions != m.dimensions {
		return fmt.Errorf("index dimension mismatch: file has %d, index expects %d", snap.Dimensions, m.dimensions)
	}
	if snap.Vectors == nil {
		snap.Vectors = make(map[string][]float32)
	}

	m.mu.Lock()
	m.vectors = snap.Vectors
	m.mu.Unlock()
	return nil
}

// Size returns the number of stored vectors.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Close is a no-op.
func (m *MemoryIndex) Close() error {
	return nil
}

// CosineSimilarity returns the similarity of two normalized vectors, clamped
// to [0, 1].
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return math.Max(0, math.Min(1, dot))
}
