package model

import (
	"context"
	"fmt"

	"github.com/chatta-ai/chatta/internal/ollama"
)

// DefaultEmbeddingDim is the vector width of the default embedding model
// (all-minilm). The vector store's column width must match it.
const DefaultEmbeddingDim = 384

// Embedder produces fixed-dimension embeddings from an Ollama embedding
// model. Every returned vector is validated against the configured
// dimension so a model swap cannot silently corrupt the store.
type Embedder struct {
	client *ollama.Client
	model  string
	dim    int
}

// NewEmbedder creates an Embedder for the given model. dim <= 0 falls back
// to DefaultEmbeddingDim.
func NewEmbedder(client *ollama.Client, model string, dim int) *Embedder {
	if dim <= 0 {
		dim = DefaultEmbeddingDim
	}
	return &Embedder{client: client, model: model, dim: dim}
}

// Dim returns the embedding dimension this Embedder enforces.
func (e *Embedder) Dim() int {
	return e.dim
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per input text, in input order. The whole
// batch goes out as a single request; Ollama handles batching internally.
// Returns nil (not error) for empty input.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vecs, err := e.client.Embed(ctx, e.model, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}

	for i, v := range vecs {
		if len(v) != e.dim {
			return nil, fmt.Errorf("embedding %d: got dimension %d, want %d", i, len(v), e.dim)
		}
	}
	return vecs, nil
}
