package splitter

import (
	"regexp"
	"strings"

	"github.com/chatta-ai/chatta/internal/document"
)

// Sentence splitter defaults, tuned for the plain-text ingestion profile.
const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 10
	DefaultParagraphSep = "\n\n\n"
	DefaultWordSep      = " "
)

// sentencePattern matches one sentence: a run of non-terminator characters
// followed by an optional terminator. Covers both ASCII and CJK punctuation.
var sentencePattern = regexp.MustCompile(`[^,.;。？！]+[,.;。？！]?`)

// Sentence splits plain text into chunks of at most ChunkSize tokens with
// ChunkOverlap tokens carried over between consecutive chunks. Text is first
// split into paragraphs, then sentences; sentences are packed greedily and a
// single oversized sentence is cut at token boundaries.
//
// Tokens are words separated by WordSep. That is a deliberate approximation:
// the chunk budget bounds retrieval-unit size, it does not need to agree
// with any particular model tokenizer.
type Sentence struct {
	ChunkSize    int
	ChunkOverlap int
	ParagraphSep string
	WordSep      string
}

// NewSentence creates a Sentence splitter with the package defaults applied
// to any zero field.
func NewSentence(chunkSize, chunkOverlap int) *Sentence {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Sentence{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		ParagraphSep: DefaultParagraphSep,
		WordSep:      DefaultWordSep,
	}
}

// GetNodes chunks every document. Each node inherits a copy of the parent
// document's metadata.
func (s *Sentence) GetNodes(docs []document.Document) []document.Node {
	var nodes []document.Node
	for _, doc := range docs {
		for _, chunk := range s.chunk(doc.Text) {
			nodes = append(nodes, document.Node{
				Text:     chunk,
				Metadata: doc.CloneMetadata(),
			})
		}
	}
	return nodes
}

func (s *Sentence) chunk(text string) []string {
	var chunks []string
	var current []string // tokens of the chunk being built
	fresh := false       // current holds more than the overlap carry-over

	flush := func() {
		if !fresh {
			return
		}
		chunks = append(chunks, strings.Join(current, s.WordSep))
		// Carry the tail of the finished chunk into the next one.
		if s.ChunkOverlap > 0 && s.ChunkOverlap < len(current) {
			current = append([]string(nil), current[len(current)-s.ChunkOverlap:]...)
		} else {
			current = nil
		}
		fresh = false
	}

	for _, para := range strings.Split(text, s.ParagraphSep) {
		for _, sentence := range sentencePattern.FindAllString(para, -1) {
			tokens := strings.Fields(sentence)
			if len(tokens) == 0 {
				continue
			}
			// Oversized sentence: cut at token boundaries.
			for len(tokens) > s.ChunkSize {
				flush()
				current = nil
				chunks = append(chunks, strings.Join(tokens[:s.ChunkSize], s.WordSep))
				tokens = tokens[s.ChunkSize:]
			}
			if len(current)+len(tokens) > s.ChunkSize {
				flush()
				if len(current)+len(tokens) > s.ChunkSize {
					// Overlap carry-over would overflow the budget; drop it.
					current = nil
				}
			}
			current = append(current, tokens...)
			fresh = true
		}
	}
	flush()
	return chunks
}
