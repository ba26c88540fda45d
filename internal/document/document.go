// Package document defines the units of ingestion and retrieval: a Document
// is the text extracted from one source (a file, or a single PDF page in
// AI-assisted mode), and a Node is a retrievable chunk cut from exactly one
// Document.
package document

// Metadata keys used across ingestion, storage and retrieval.
const (
	MetaFileName   = "file_name"
	MetaPrivacy    = "privacy"
	MetaPDFPath    = "pdf_path"
	MetaPageNumber = "page_number"
)

// Privacy levels carried in node metadata. The vector store's default query
// filter excludes PrivacyPublic rows.
const (
	PrivacyPrivate = 0
	PrivacyPublic  = 1
)

// Document is raw extracted text plus its source metadata. Created once
// during ingestion and never modified afterwards.
type Document struct {
	Text     string
	Metadata map[string]any
}

// CloneMetadata returns a copy of the document's metadata so each derived
// Node owns its own map.
func (d Document) CloneMetadata() map[string]any {
	if d.Metadata == nil {
		return map[string]any{}
	}
	m := make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		m[k] = v
	}
	return m
}

// Node is a contiguous span of text derived from one Document. The embedding
// is attached once, before the node is persisted; nodes are never updated in
// place after that — re-ingestion creates new nodes.
type Node struct {
	ID        string
	Text      string
	Metadata  map[string]any
	Embedding []float32
}

// Privacy returns the node's privacy level, defaulting to PrivacyPublic when
// the metadata key is missing or not numeric.
func (n Node) Privacy() int {
	switch v := n.Metadata[MetaPrivacy].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return PrivacyPublic
}
