// Package retrieval turns a natural-language query into the context text
// the prompt assembler feeds to generation.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatta-ai/chatta/internal/document"
)

// DefaultTopK is the number of nodes fetched per query.
const DefaultTopK = 10

// Embedder is the slice of the embedding client the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the slice of the vector store the retriever needs.
// The store's filter predicate is already baked in at construction.
type VectorSearcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]document.Node, error)
}

// Retriever embeds a query, fetches the nearest nodes and concatenates
// their text into a single context string.
type Retriever struct {
	embedder Embedder
	store    VectorSearcher
	topK     int
}

// NewRetriever creates a Retriever. topK <= 0 falls back to DefaultTopK.
func NewRetriever(embedder Embedder, store VectorSearcher, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Search returns the concatenated text of the topK nodes most similar to
// query. Node texts are joined without a separator, in similarity order.
// An empty store yields "".
func (r *Retriever) Search(ctx context.Context, query string) (string, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	nodes, err := r.store.Query(ctx, vec, r.topK)
	if err != nil {
		return "", fmt.Errorf("searching vectors: %w", err)
	}

	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(n.Text)
	}
	return sb.String(), nil
}
