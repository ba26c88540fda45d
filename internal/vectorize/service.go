// Package vectorize runs batch ingestion: extract documents, split them
// into nodes, embed the nodes and persist them in the vector store.
package vectorize

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/chatta-ai/chatta/internal/document"
	"github.com/chatta-ai/chatta/internal/ingest"
	"github.com/chatta-ai/chatta/internal/model"
	"github.com/chatta-ai/chatta/internal/vecdb"
)

// embedBatchSize is how many node texts go into one embedding request.
const embedBatchSize = 32

// embedConcurrency bounds in-flight embedding requests so a large corpus
// doesn't overwhelm the model server.
const embedConcurrency = 4

// DocumentSource yields documents plus the profile whose splitter chunks
// them. *ingest.Pipeline is the production implementation.
type DocumentSource interface {
	Run(ctx context.Context, folder string, private bool) ([]document.Document, error)
	Profile() ingest.Profile
}

// Service wires the ingestion pipeline to the embedder and the store.
type Service struct {
	pipeline DocumentSource
	embedder model.TextEmbedder
	store    vecdb.Store
	logger   *slog.Logger
}

// New creates a vectorization Service. logger may be nil.
func New(pipeline DocumentSource, embedder model.TextEmbedder, store vecdb.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pipeline: pipeline, embedder: embedder, store: store, logger: logger}
}

// Run ingests every PDF under folder: extract, split, embed, store.
// The private flag tags the whole batch's privacy metadata uniformly.
// Returns the number of nodes stored.
func (s *Service) Run(ctx context.Context, folder string, private bool) (int, error) {
	docs, err := s.pipeline.Run(ctx, folder, private)
	if err != nil {
		return 0, fmt.Errorf("ingesting %s: %w", folder, err)
	}
	s.logger.Info("documents extracted", "count", len(docs))

	nodes := s.pipeline.Profile().Splitter.GetNodes(docs)
	if len(nodes) == 0 {
		s.logger.Info("nothing to vectorize")
		return 0, nil
	}
	s.logger.Info("nodes produced", "count", len(nodes))

	if err := s.embed(ctx, nodes); err != nil {
		return 0, err
	}

	if err := s.store.Add(ctx, nodes); err != nil {
		return 0, fmt.Errorf("storing %d nodes: %w", len(nodes), err)
	}
	s.logger.Info("nodes stored", "count", len(nodes))
	return len(nodes), nil
}

// embed fills in node embeddings batch by batch, with bounded concurrency
// across batches.
func (s *Service) embed(ctx context.Context, nodes []document.Node) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for start := 0; start < len(nodes); start += embedBatchSize {
		end := min(start+embedBatchSize, len(nodes))
		batch := nodes[start:end]

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, n := range batch {
				texts[i] = n.Text
			}
			vecs, err := s.embedder.EmbedBatch(gCtx, texts)
			if err != nil {
				return fmt.Errorf("embedding nodes %d..%d: %w", start, end-1, err)
			}
			for i := range batch {
				batch[i].Embedding = vecs[i]
			}
			return nil
		})
	}

	return g.Wait()
}
