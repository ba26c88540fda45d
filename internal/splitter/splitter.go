// Package splitter cuts ingested documents into retrievable nodes.
//
// Two splitters exist and each is paired with an ingestion profile:
// Markdown splits AI-normalized text at heading boundaries, Sentence splits
// plain extracted text into token-bounded chunks with overlap.
package splitter

import "github.com/chatta-ai/chatta/internal/document"

// NodeSplitter turns documents into nodes. Nodes come out in source order;
// no reordering and no deduplication.
type NodeSplitter interface {
	GetNodes(docs []document.Document) []document.Node
}
