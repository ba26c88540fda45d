package vecdb

import (
	"container/heap"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chatta-ai/chatta/internal/document"
)

// Compile-time check that SQLite implements Store.
var _ Store = (*SQLite)(nil)

// SQLite stores nodes in a single-file database and answers queries with a
// brute-force cosine scan. It keeps single-binary deployments and tests
// free of a Postgres dependency; past ~100K vectors the scan latency makes
// the pgvector backend the right choice.
type SQLite struct {
	db     *sql.DB
	filter Filter
}

// OpenSQLite opens (or creates) the database at path and ensures the
// rag_data table exists. Use ":memory:" for an ephemeral store.
func OpenSQLite(path string, filter Filter) (*SQLite, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS rag_data (
			id        TEXT PRIMARY KEY,
			text      TEXT NOT NULL,
			metadata  TEXT NOT NULL DEFAULT '{}',
			embedding BLOB NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating rag_data table: %w", err)
	}

	return &SQLite{db: db, filter: filter}, nil
}

// Add bulk-inserts nodes in one transaction. Each node gets a fresh uuid,
// so adding the same node twice stores two rows.
func (s *SQLite) Add(ctx context.Context, nodes []document.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning insert transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO rag_data (id, text, metadata, embedding) VALUES (?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for i, n := range nodes {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		meta, err := json.Marshal(n.Metadata)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("encoding metadata for node %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, n.Text, string(meta), encodeFloat32s(n.Embedding)); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting node %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// idScore holds only the id and score during the scan phase of Query.
// Full rows are fetched for top-K winners only.
type idScore struct {
	ID    string
	Score float32
}

// Query scans every stored vector, scores it against the query vector and
// returns the topK best matches passing the filter, best first.
func (s *SQLite) Query(ctx context.Context, vector []float32, topK int) ([]document.Node, error) {
	if topK <= 0 {
		return nil, nil
	}
	queryNorm := norm(vector)
	if queryNorm == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, metadata, embedding FROM rag_data`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	h := &idScoreHeap{}
	heap.Init(h)

	// Reusable buffer for decoding embeddings to avoid per-row allocations.
	var buf []float32

	for rows.Next() {
		var id, metaJSON string
		var blob []byte
		if err := rows.Scan(&id, &metaJSON, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		var meta map[string]any
		if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
		}
		if !s.filter.matches(meta) {
			continue
		}

		buf, err = decodeFloat32sInto(buf, blob)
		if err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", id, err)
		}

		score := cosine(vector, buf, queryNorm)
		if h.Len() < topK {
			heap.Push(h, idScore{ID: id, Score: score})
		} else if score > (*h)[0].Score {
			(*h)[0] = idScore{ID: id, Score: score}
			heap.Fix(h, 0)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	if h.Len() == 0 {
		return nil, nil
	}

	// Pop the heap into best-first order, then fetch full rows per id to
	// keep that order (an IN query would not preserve it).
	ordered := make([]idScore, h.Len())
	for i := len(ordered) - 1; i >= 0; i-- {
		ordered[i] = heap.Pop(h).(idScore)
	}

	nodes := make([]document.Node, 0, len(ordered))
	for _, item := range ordered {
		var n document.Node
		var metaJSON string
		var blob []byte
		err := s.db.QueryRowContext(ctx,
			`SELECT id, text, metadata, embedding FROM rag_data WHERE id = ?`, item.ID).
			Scan(&n.ID, &n.Text, &metaJSON, &blob)
		if err != nil {
			return nil, fmt.Errorf("fetching node %s: %w", item.ID, err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &n.Metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", item.ID, err)
		}
		if n.Embedding, err = decodeFloat32s(blob); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", item.ID, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Count returns the number of stored nodes, ignoring the filter.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rag_data").Scan(&count)
	return count, err
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// encodeFloat32s serializes a float32 slice to little-endian bytes.
func encodeFloat32s(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeFloat32s deserializes little-endian bytes into a new float32 slice.
func decodeFloat32s(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// decodeFloat32sInto decodes little-endian bytes into the provided buffer,
// reusing it across rows during the scan phase.
func decodeFloat32sInto(buf []float32, b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("byte slice length %d is not a multiple of 4", len(b))
	}
	n := len(b) / 4
	if cap(buf) < n {
		buf = make([]float32, n)
	} else {
		buf = buf[:n]
	}
	for i := range buf {
		buf[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return buf, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes dot(a,b) / (aNorm * |b|); aNorm is precomputed.
func cosine(a, b []float32, aNorm float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}

// idScoreHeap is a min-heap of idScore ordered by Score, used to track
// top-K candidates during the scan phase.
type idScoreHeap []idScore

func (h idScoreHeap) Len() int           { return len(h) }
func (h idScoreHeap) Less(i, j int) bool { return h[i].Score < h[j].Score }
func (h idScoreHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idScoreHeap) Push(x any)        { *h = append(*h, x.(idScore)) }
func (h *idScoreHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
