// Package model wraps the Ollama client with the two model roles the
// backend uses: streamed text generation and fixed-dimension embedding.
package model

import "context"

// Chat roles in the Ollama wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message passed to a generator.
type Message struct {
	Role    string
	Content string
}

// Fragment is one unit of a streamed generation. On success Text is a
// content delta and Err is nil. On failure a single final fragment carries
// a human-readable error text and a non-nil Err, so consumers can either
// surface the text or branch on the error.
type Fragment struct {
	Text string
	Err  error
}

// TextGenerator produces a streamed completion for a chat prompt. Fragments
// are delivered in order through emit; the returned string is the hex trace
// span id of the generation, usable for annotation.
type TextGenerator interface {
	Run(ctx context.Context, prompt []Message, maxTokens int, emit func(Fragment)) string
}

// TextEmbedder converts text into fixed-size vectors.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}
