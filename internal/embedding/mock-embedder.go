package embedding

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/hyperjump/lexilaw/pkg/utils"
)

// ErrMockFailure is returned by MockEmbedder for texts its failure predicate matches.
var ErrMockFailure = errors.New("mock embedding failure")

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-dimension
// vector derived from the text hash so that the same text always gets the same embedding.
type MockEmbedder struct {
	dimensions int
	failWhen   func(text string) bool

	mu         sync.Mutex
	batchCalls int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// FailWhen makes Embed and EmbedBatch return ErrMockFailure when pred matches any input text.
func (e *MockEmbedder) FailWhen(pred func(text string) bool) *MockEmbedder {
	e.failWhen = pred
	return e
}

// Embed returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.failWhen != nil && e.failWhen(text) {
		return nil, ErrMockFailure
	}
	h := HashString(text)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(h*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch embeds every text; any failure fails the whole batch.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batchCalls++
	e.mu.Unlock()
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// BatchCalls returns how many times EmbedBatch was called.
func (e *MockEmbedder) BatchCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.batchCalls
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
