// Package vecdb stores embedded nodes and runs similarity search over them.
//
// Two backends exist: Postgres with the pgvector extension (HNSW index,
// the production path) and SQLite with brute-force cosine scan (single
// binary deployments and tests). Both enforce the same construction-time
// filter predicate on every query.
package vecdb

import (
	"context"
	"fmt"

	"github.com/chatta-ai/chatta/internal/document"
)

// Filter operators. The filter vocabulary is deliberately small: one field
// compared to one string value.
const (
	OpEqual    = "=="
	OpNotEqual = "!="
)

// Filter is a metadata predicate applied to every query. It is fixed when
// the store is constructed, not passed per query.
type Filter struct {
	Field string
	Op    string
	Value string
}

// DefaultPrivacyFilter excludes nodes whose privacy metadata equals "1".
func DefaultPrivacyFilter() Filter {
	return Filter{Field: document.MetaPrivacy, Op: OpNotEqual, Value: "1"}
}

// Validate checks the filter for a known operator and non-empty field.
func (f Filter) Validate() error {
	if f.Field == "" {
		return fmt.Errorf("filter field is empty")
	}
	switch f.Op {
	case OpEqual, OpNotEqual:
		return nil
	default:
		return fmt.Errorf("unsupported filter operator %q", f.Op)
	}
}

// matches evaluates the filter against a metadata map. Missing keys
// stringify to ""; "!=" therefore keeps rows without the field, matching
// the SQL IS DISTINCT FROM semantics of the Postgres backend.
func (f Filter) matches(metadata map[string]any) bool {
	var got string
	if v, ok := metadata[f.Field]; ok && v != nil {
		got = fmt.Sprintf("%v", v)
	}
	if f.Op == OpEqual {
		return got == f.Value
	}
	return got != f.Value
}

// Store persists embedded nodes and answers nearest-neighbor queries.
//
// Add is a plain bulk insert: every node gets a fresh id, so re-ingesting
// the same source stores duplicate rows. Deduplication is the caller's
// concern, if it is anyone's.
type Store interface {
	Add(ctx context.Context, nodes []document.Node) error
	Query(ctx context.Context, vector []float32, topK int) ([]document.Node, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
