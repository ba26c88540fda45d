package model

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chatta-ai/chatta/internal/ollama"
)

const tracerName = "chatta/generation"

// TraceSink receives the span id of a finished generation. Implementations
// must tolerate being called from the generation path; publish failures are
// logged and never fail the generation itself.
type TraceSink interface {
	Publish(ctx context.Context, spanID string) error
}

// Generator streams completions from an Ollama chat model. Every call runs
// inside its own trace span; the span id is returned to the caller and
// mirrored to the optional TraceSink for out-of-band consumers.
type Generator struct {
	client *ollama.Client
	model  string
	sink   TraceSink
	logger *slog.Logger
}

// NewGenerator creates a Generator for the given model. sink may be nil.
func NewGenerator(client *ollama.Client, model string, sink TraceSink, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{client: client, model: model, sink: sink, logger: logger}
}

// Run streams the completion for prompt, delivering fragments through emit
// in arrival order, and returns the generation's span id.
//
// On any transport or upstream failure emit receives exactly one final
// fragment whose Text starts with "Error occurred: " and whose Err is the
// underlying error. No fragments follow it.
func (g *Generator) Run(ctx context.Context, prompt []Message, maxTokens int, emit func(Fragment)) string {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("gen.model", g.model),
		attribute.Int("gen.max_tokens", maxTokens),
	)

	messages := make([]ollama.Message, len(prompt))
	for i, m := range prompt {
		messages[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	err := g.client.ChatStream(ctx, g.model, messages, maxTokens, func(delta string) {
		emit(Fragment{Text: delta})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		emit(Fragment{
			Text: fmt.Sprintf("Error occurred: %v\n\n", err),
			Err:  err,
		})
	}

	spanID := span.SpanContext().SpanID().String()
	if g.sink != nil {
		if err := g.sink.Publish(ctx, spanID); err != nil {
			g.logger.Warn("publishing span id", "span_id", spanID, "error", err)
		}
	}
	return spanID
}
