// Package api exposes the chat backend over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chatta-ai/chatta/internal/agent"
	"github.com/chatta-ai/chatta/internal/feedback"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Chatter runs one chat turn.
type Chatter interface {
	Chat(ctx context.Context, question string) (agent.Answer, error)
}

// Annotator forwards feedback annotations to the trace store.
type Annotator interface {
	Annotate(ctx context.Context, ann feedback.Annotation) error
}

// Deps holds the handler dependencies.
type Deps struct {
	Agent    Chatter
	Feedback Annotator
	Logger   *slog.Logger
}

// NewHandler builds the HTTP routing tree.
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth())
	r.Post("/chat", handleChat(deps))
	r.Post("/feedback", handleFeedback(deps))

	return r
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Prompt string `json:"prompt"`
}

// ChatResponse pairs the answer with the span id of its generation so the
// client can file feedback against exactly this turn.
type ChatResponse struct {
	Message string `json:"message"`
	SpanID  string `json:"span_id"`
}

func handleChat(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Prompt == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "prompt is required")
			return
		}

		answer, err := deps.Agent.Chat(r.Context(), req.Prompt)
		if err != nil {
			deps.Logger.Error("chat turn failed", "error", err)
			httpError(w, http.StatusBadGateway, "api_error", "chat failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChatResponse{Message: answer.Text, SpanID: answer.SpanID})
	}
}

func handleFeedback(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var ann feedback.Annotation
		if err := json.NewDecoder(r.Body).Decode(&ann); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := ann.Validate(); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		if err := deps.Feedback.Annotate(r.Context(), ann); err != nil {
			deps.Logger.Error("forwarding feedback failed", "span_id", ann.SpanID, "error", err)
			httpError(w, http.StatusBadGateway, "api_error", "forwarding feedback: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "accepted", "span_id": ann.SpanID})
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
