package splitter

import (
	"path/filepath"
	"strings"

	"github.com/chatta-ai/chatta/internal/document"
)

// DefaultSeparator is the heading marker Markdown splits on.
const DefaultSeparator = "##"

// Markdown splits document text at heading boundaries. A boundary is an
// occurrence of the separator not preceded by '#' and not followed by '#',
// so "##" matches exactly two hash characters and never "###" or deeper.
// The split is a lookahead: the heading stays at the start of the fragment
// that follows the boundary.
//
// Fragments that do not start with such a heading after trimming are
// discarded. In particular, any preamble before the first heading is
// dropped, and a document holding only deeper headings yields no nodes —
// that text is treated as extraction noise, not content.
type Markdown struct {
	separator string
	tagging   bool
}

// NewMarkdown creates a Markdown splitter. An empty separator falls back to
// DefaultSeparator. When tagging is enabled each kept fragment is prefixed
// with the source file's base name and a newline.
func NewMarkdown(separator string, tagging bool) *Markdown {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Markdown{separator: separator, tagging: tagging}
}

// GetNodes splits each document and returns the kept fragments as nodes.
// Every node inherits a copy of its parent document's metadata.
func (m *Markdown) GetNodes(docs []document.Document) []document.Node {
	var nodes []document.Node
	for _, doc := range docs {
		for _, fragment := range m.split(doc.Text) {
			text := strings.TrimSpace(fragment)
			if !m.startsWithHeading(text) {
				continue
			}
			if m.tagging {
				if tag := m.documentTag(doc); tag != "" {
					text = tag + "\n" + text
				}
			}
			nodes = append(nodes, document.Node{
				Text:     text,
				Metadata: doc.CloneMetadata(),
			})
		}
	}
	return nodes
}

// startsWithHeading reports whether text begins with the separator and not
// a longer '#' run, the same rule boundaries applies mid-text. Without it a
// document opening with "###" would be kept whole even though the scan
// correctly refuses to split there.
func (m *Markdown) startsWithHeading(text string) bool {
	if !strings.HasPrefix(text, m.separator) {
		return false
	}
	return len(text) == len(m.separator) || text[len(m.separator)] != '#'
}

// split cuts text at every heading boundary without consuming the heading.
func (m *Markdown) split(text string) []string {
	bounds := m.boundaries(text)
	if len(bounds) == 0 {
		return []string{text}
	}
	var parts []string
	prev := 0
	for _, b := range bounds {
		if b > prev {
			parts = append(parts, text[prev:b])
		}
		prev = b
	}
	parts = append(parts, text[prev:])
	return parts
}

// boundaries returns the byte offsets of every separator occurrence that is
// not part of a longer '#' run. Go's regexp has no lookarounds, so the
// positional rule is checked directly.
func (m *Markdown) boundaries(text string) []int {
	var bounds []int
	sep := m.separator
	for i := 0; i+len(sep) <= len(text); i++ {
		if text[i:i+len(sep)] != sep {
			continue
		}
		if i > 0 && text[i-1] == '#' {
			continue
		}
		if i+len(sep) < len(text) && text[i+len(sep)] == '#' {
			continue
		}
		bounds = append(bounds, i)
	}
	return bounds
}

// documentTag derives the document identifier used as a node prefix:
// the base name of the source PDF path, falling back to the file name.
func (m *Markdown) documentTag(doc document.Document) string {
	if p, ok := doc.Metadata[document.MetaPDFPath].(string); ok && p != "" {
		return filepath.Base(p)
	}
	if name, ok := doc.Metadata[document.MetaFileName].(string); ok {
		return name
	}
	return ""
}
