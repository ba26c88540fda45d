package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chatta",
	Short: "Document question answering over an ingested PDF corpus",
	Long: `chatta answers questions grounded in a local PDF corpus.

Documents are split into chunks, embedded with a local Ollama model and
stored in a vector database. Questions are answered by a generation model
prompted with the most similar chunks.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the chatta version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chatta version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(vectorizeCmd)
}

func main() {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
