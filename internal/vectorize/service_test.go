package vectorize

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/chatta-ai/chatta/internal/document"
	"github.com/chatta-ai/chatta/internal/ingest"
	"github.com/chatta-ai/chatta/internal/vecdb"
)

// fakeSource simulates extraction of a PDF corpus without touching disk.
type fakeSource struct {
	docs    []document.Document
	err     error
	private bool
}

func (f *fakeSource) Run(_ context.Context, _ string, private bool) ([]document.Document, error) {
	f.private = private
	if f.err != nil {
		return nil, f.err
	}
	// Apply the batch-wide privacy flag the way the real pipeline does.
	privacy := document.PrivacyPublic
	if private {
		privacy = document.PrivacyPrivate
	}
	out := make([]document.Document, len(f.docs))
	for i, d := range f.docs {
		out[i] = document.Document{Text: d.Text, Metadata: d.CloneMetadata()}
		if out[i].Metadata == nil {
			out[i].Metadata = map[string]any{}
		}
		out[i].Metadata[document.MetaPrivacy] = privacy
	}
	return out, nil
}

func (f *fakeSource) Profile() ingest.Profile {
	return ingest.DefaultProfile()
}

// countingEmbedder returns unit vectors and records batch sizes.
// Batches may arrive concurrently.
type countingEmbedder struct {
	dim int

	mu      sync.Mutex
	batches []int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.batches = append(e.batches, len(texts))
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i := range out {
		v := make([]float32, e.dim)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func (e *countingEmbedder) Dim() int { return e.dim }

func openStore(t *testing.T) vecdb.Store {
	t.Helper()
	s, err := vecdb.OpenSQLite(filepath.Join(t.TempDir(), "vec.db"), vecdb.DefaultPrivacyFilter())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pageText builds text long enough to cross the chunk budget.
func pageText(word string, words int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", words)) + "."
}

func TestRun_TwoPageDocumentProducesTaggedNodes(t *testing.T) {
	source := &fakeSource{docs: []document.Document{
		{Text: pageText("alpha", 600), Metadata: map[string]any{document.MetaPageNumber: 1}},
		{Text: pageText("beta", 600), Metadata: map[string]any{document.MetaPageNumber: 2}},
	}}
	embedder := &countingEmbedder{dim: 4}
	store := openStore(t)

	svc := New(source, embedder, store, nil)
	stored, err := svc.Run(context.Background(), "/data", true)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 600 words per page at 512/10 chunking crosses each page boundary.
	if stored < 4 {
		t.Fatalf("stored %d nodes, want at least 2 per page", stored)
	}
	if !source.private {
		t.Error("private flag not forwarded to the pipeline")
	}

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != stored {
		t.Errorf("store holds %d nodes, Run reported %d", count, stored)
	}

	// Stored nodes keep the batch privacy value.
	nodes, err := store.Query(context.Background(), []float32{1, 0, 0, 0}, stored)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, n := range nodes {
		if n.Privacy() != document.PrivacyPrivate {
			t.Errorf("node privacy = %d, want %d", n.Privacy(), document.PrivacyPrivate)
		}
	}
}

func TestRun_EmptyCorpusStoresNothing(t *testing.T) {
	store := openStore(t)
	svc := New(&fakeSource{}, &countingEmbedder{dim: 4}, store, nil)

	stored, err := svc.Run(context.Background(), "/data", false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stored != 0 {
		t.Errorf("stored = %d, want 0", stored)
	}
}

func TestRun_PipelineErrorAborts(t *testing.T) {
	svc := New(&fakeSource{err: errors.New("bad pdf")}, &countingEmbedder{dim: 4}, openStore(t), nil)
	if _, err := svc.Run(context.Background(), "/data", false); err == nil {
		t.Fatal("expected error when ingestion fails")
	}
}

func TestRun_EmbedsInBoundedBatches(t *testing.T) {
	source := &fakeSource{docs: []document.Document{
		{Text: pageText("gamma", 3000)},
	}}
	embedder := &countingEmbedder{dim: 4}
	svc := New(source, embedder, openStore(t), nil)

	if _, err := svc.Run(context.Background(), "/data", false); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, size := range embedder.batches {
		if size > embedBatchSize {
			t.Errorf("batch of %d exceeds limit %d", size, embedBatchSize)
		}
	}
}
