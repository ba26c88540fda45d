// Package agent orchestrates a single chat turn: retrieve context for the
// question, assemble the prompt, generate the answer.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatta-ai/chatta/internal/model"
)

// Searcher finds context text for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Prompter renders the retrieved context and question into a prompt.
type Prompter interface {
	Generate(retrieval, question string, instructions ...string) ([]model.Message, error)
}

// Answer is the outcome of one chat turn.
type Answer struct {
	Text   string
	SpanID string
}

// Agent wires retrieval, prompt assembly and generation into a synchronous
// chat call. It holds no per-conversation state; every turn stands alone.
type Agent struct {
	retriever    Searcher
	composer     Prompter
	generator    model.TextGenerator
	maxTokens    int
	instructions []string
}

// New creates an Agent. instructions are prepended as system messages to
// every turn.
func New(retriever Searcher, composer Prompter, generator model.TextGenerator, maxTokens int, instructions ...string) *Agent {
	return &Agent{
		retriever:    retriever,
		composer:     composer,
		generator:    generator,
		maxTokens:    maxTokens,
		instructions: instructions,
	}
}

// Chat runs one turn for the given question and returns the full generated
// text with the generation's span id. A failed generation aborts the turn
// with an error; the span id is still returned for annotation.
func (a *Agent) Chat(ctx context.Context, question string) (Answer, error) {
	retrieval, err := a.retriever.Search(ctx, question)
	if err != nil {
		return Answer{}, fmt.Errorf("retrieving context: %w", err)
	}

	prompt, err := a.composer.Generate(retrieval, question, a.instructions...)
	if err != nil {
		return Answer{}, fmt.Errorf("assembling prompt: %w", err)
	}

	var sb strings.Builder
	var genErr error
	spanID := a.generator.Run(ctx, prompt, a.maxTokens, func(f model.Fragment) {
		if f.Err != nil {
			genErr = f.Err
			return
		}
		sb.WriteString(f.Text)
	})

	if genErr != nil {
		return Answer{SpanID: spanID}, fmt.Errorf("generating answer: %w", genErr)
	}
	return Answer{Text: sb.String(), SpanID: spanID}, nil
}
