package testutils

import (
	"context"
	"fmt"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for any text without a registered embedding.
	Default []float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string
}

func NewMockEmbedder(dims uint) *MockEmbedder {
	def := make([]float32, dims)
	for i := range def {
		def[i] = 0.1 * float32(i+1)
	}

	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    def,
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	return m.Default, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
