package testutils

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// MockEmbedder is a test embedder that returns predictable embeddings.
// Texts without an explicit entry in Embeddings get a deterministic vector
// derived from a hash of the text.
type MockEmbedder struct {
	mu sync.Mutex

	Embeddings map[string][]float32
	Dimensions int

	// FailOn causes Embed and EmbedBatch to return an error when an input
	// text matches.
	FailOn string

	// BatchCalls counts EmbedBatch invocations.
	BatchCalls int
}

func NewMockEmbedder(dimensions int) *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Dimensions: dimensions,
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embed(text)
}

func (m *MockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.BatchCalls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.embed(t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockEmbedder) embed(text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, m.Dimensions)
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed>>40) / float32(1<<24)
	}
	return v, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
