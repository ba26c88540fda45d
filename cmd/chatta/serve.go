package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/chatta-ai/chatta/internal/agent"
	"github.com/chatta-ai/chatta/internal/api"
	"github.com/chatta-ai/chatta/internal/composer"
	"github.com/chatta-ai/chatta/internal/config"
	"github.com/chatta-ai/chatta/internal/feedback"
	"github.com/chatta-ai/chatta/internal/model"
	"github.com/chatta-ai/chatta/internal/observability"
	"github.com/chatta-ai/chatta/internal/ollama"
	"github.com/chatta-ai/chatta/internal/retrieval"
	"github.com/chatta-ai/chatta/internal/tracenotify"
	"github.com/chatta-ai/chatta/internal/vecdb"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat backend (foreground)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	fmt.Fprintf(os.Stderr, "chatta version %s\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Initialize structured logging.
	logLevel := slog.LevelInfo
	if strings.EqualFold(os.Getenv("CHATTA_LOG_LEVEL"), "debug") {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Install the tracer provider before anything starts spans. Without it
	// chat turns would carry zero span ids and feedback could not be filed.
	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("flushing traces on shutdown", "error", err)
		}
	}()

	// Check Ollama readiness.
	ollamaClient := ollama.New(cfg.Ollama.URL)
	if cfg.Ollama.PullOnStartup {
		if err := ollama.EnsureReady(ctx, ollamaClient, cfg.Ollama.GenModel, cfg.Ollama.EmbedModel, os.Stderr); err != nil {
			return err
		}
	} else if !ollamaClient.IsRunning(ctx) {
		return fmt.Errorf("Ollama is not running at %s", cfg.Ollama.URL)
	}

	// Open the vector store.
	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing vector store", "error", err)
		}
	}()

	// The Redis slot mirrors the span id of the latest chat turn for
	// clients that consume it out of band. Chat responses carry the id
	// directly, so an unreachable Redis only degrades that side channel.
	notifier := tracenotify.New(cfg.Redis.Addr, cfg.Redis.Key)
	defer notifier.Close()
	if err := notifier.Ping(ctx); err != nil {
		slog.Warn("redis unreachable, span ids will not be mirrored", "addr", cfg.Redis.Addr, "error", err)
	}

	// Assemble the chat path: retrieve, compose, generate.
	embedder := model.NewEmbedder(ollamaClient, cfg.Ollama.EmbedModel, cfg.Ollama.EmbedDim)
	generator := model.NewGenerator(ollamaClient, cfg.Ollama.GenModel, notifier, slog.Default())
	retriever := retrieval.NewRetriever(embedder, store, cfg.Store.TopK)
	chatAgent := agent.New(retriever, composer.New(slog.Default()), generator, cfg.Ollama.MaxTokens, cfg.Instructions...)
	feedbackClient := feedback.New(cfg.Feedback.TraceStoreURL)

	handler := api.NewHandler(api.Deps{
		Agent:    chatAgent,
		Feedback: feedbackClient,
		Logger:   slog.Default(),
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Build and start MCP server (stdio transport in a goroutine).
	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Agent:     chatAgent,
		Retriever: retriever,
	})
	stdioSrv := server.NewStdioServer(mcpSrv)
	go func() {
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("MCP stdio server error", "error", err)
		}
	}()
	slog.Info("MCP server started (stdio transport)")

	// Start server in a goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("chatta listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for signal or server error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (vecdb.Store, error) {
	filter := vecdb.DefaultPrivacyFilter()
	switch cfg.Store.Backend {
	case "postgres":
		return vecdb.OpenPostgres(ctx, cfg.Store.PostgresURL, filter)
	case "sqlite":
		return vecdb.OpenSQLite(cfg.Store.SQLitePath, filter)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
