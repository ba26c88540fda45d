package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chatta-ai/chatta/internal/config"
	"github.com/chatta-ai/chatta/internal/ingest"
	"github.com/chatta-ai/chatta/internal/model"
	"github.com/chatta-ai/chatta/internal/ollama"
	"github.com/chatta-ai/chatta/internal/vectorize"
)

var vectorizeCmd = &cobra.Command{
	Use:   "vectorize",
	Short: "Ingest a folder of PDFs into the vector store",
	Long: `Ingest a folder of PDFs into the vector store.

Every PDF in the folder is split into chunks, embedded and stored. The
"ai" profile reformats each page into markdown with the generation model
before chunking, which is slower but yields cleaner chunks.

Examples:
  chatta vectorize -d ./docs
  chatta vectorize -d ./docs --profile ai
  chatta vectorize -d ./private-docs --private`,
	RunE: func(cmd *cobra.Command, args []string) error {
		folder, _ := cmd.Flags().GetString("data")
		profileName, _ := cmd.Flags().GetString("profile")
		private, _ := cmd.Flags().GetBool("private")
		return runVectorize(folder, profileName, private)
	},
}

func init() {
	vectorizeCmd.Flags().StringP("data", "d", "", "folder with PDF files to ingest")
	vectorizeCmd.Flags().String("profile", ingest.ProfileDefault, "ingestion profile: default or ai")
	vectorizeCmd.Flags().Bool("private", false, "mark ingested documents as private")
	vectorizeCmd.MarkFlagRequired("data")
}

func runVectorize(folder, profileName string, private bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ollamaClient := ollama.New(cfg.Ollama.URL)
	if cfg.Ollama.PullOnStartup {
		if err := ollama.EnsureReady(ctx, ollamaClient, cfg.Ollama.GenModel, cfg.Ollama.EmbedModel, os.Stderr); err != nil {
			return err
		}
	} else if !ollamaClient.IsRunning(ctx) {
		return fmt.Errorf("Ollama is not running at %s", cfg.Ollama.URL)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing vector store", "error", err)
		}
	}()

	// The AI profile reformats pages with the generation model; no trace
	// sink is needed for ingestion-time generations.
	generator := model.NewGenerator(ollamaClient, cfg.Ollama.GenModel, nil, slog.Default())
	profile, err := ingest.ProfileByName(profileName, generator)
	if err != nil {
		return err
	}

	embedder := model.NewEmbedder(ollamaClient, cfg.Ollama.EmbedModel, cfg.Ollama.EmbedDim)
	pipeline := ingest.NewPipeline(profile, slog.Default())
	svc := vectorize.New(pipeline, embedder, store, slog.Default())

	count, err := svc.Run(ctx, folder, private)
	if err != nil {
		return fmt.Errorf("vectorizing %s: %w", folder, err)
	}

	fmt.Printf("stored %d nodes from %s\n", count, folder)
	return nil
}
