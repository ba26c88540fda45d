// Package config loads application configuration from a YAML file with
// environment variable overrides. Lookup order: explicit path, ./chatta.yaml,
// $XDG_CONFIG_HOME/chatta/config.yaml; missing files yield defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// OllamaConfig configures the model backend.
type OllamaConfig struct {
	URL           string `yaml:"url"`
	GenModel      string `yaml:"gen_model"`
	EmbedModel    string `yaml:"embed_model"`
	EmbedDim      int    `yaml:"embed_dim"`
	MaxTokens     int    `yaml:"max_tokens"`
	PullOnStartup bool   `yaml:"pull_on_startup"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	// Backend is "postgres" or "sqlite".
	Backend string `yaml:"backend"`
	// PostgresURL is the pgvector database connection string.
	PostgresURL string `yaml:"postgres_url"`
	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`
	// TopK is how many nodes retrieval fetches per query.
	TopK int `yaml:"top_k"`
}

// RedisConfig configures the trace-span correlation slot.
type RedisConfig struct {
	Addr string `yaml:"addr"`
	Key  string `yaml:"key"`
}

// FeedbackConfig configures annotation forwarding.
type FeedbackConfig struct {
	// TraceStoreURL is the base URL of the external trace store.
	TraceStoreURL string `yaml:"trace_store_url"`
}

// TracingConfig configures OTLP span export.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Feedback FeedbackConfig `yaml:"feedback"`
	Tracing  TracingConfig  `yaml:"tracing"`
	// Instructions are system messages prepended to every chat turn.
	Instructions []string `yaml:"instructions"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8000},
		Ollama: OllamaConfig{
			URL:           "http://localhost:11434",
			GenModel:      "llama3.1",
			EmbedModel:    "all-minilm:latest",
			EmbedDim:      384,
			MaxTokens:     350,
			PullOnStartup: true,
		},
		Store: StoreConfig{
			Backend:    "postgres",
			SQLitePath: "chatta.db",
			TopK:       10,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			Key:  "span_id",
		},
		Feedback: FeedbackConfig{
			TraceStoreURL: "http://localhost:6006",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			ServiceName: "chatta",
			Environment: "dev",
		},
	}
}

// Load reads the config at path. An empty path tries ./chatta.yaml, then
// $XDG_CONFIG_HOME/chatta/config.yaml. A missing file yields defaults.
// Environment variables override file values last.
func Load(path string) (*Config, error) {
	cfg := Default()

	candidates := []string{path}
	if path == "" {
		candidates = []string{"chatta.yaml"}
		if dir := configDir(); dir != "" {
			candidates = append(candidates, filepath.Join(dir, "chatta", "config.yaml"))
		}
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", candidate, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", candidate, err)
		}
		break
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config")
}

// applyEnv overrides file values with CHATTA_* environment variables.
func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setInt("CHATTA_PORT", &cfg.Server.Port)
	setString("CHATTA_OLLAMA_URL", &cfg.Ollama.URL)
	setString("CHATTA_GEN_MODEL", &cfg.Ollama.GenModel)
	setString("CHATTA_EMBED_MODEL", &cfg.Ollama.EmbedModel)
	setInt("CHATTA_EMBED_DIM", &cfg.Ollama.EmbedDim)
	setInt("CHATTA_MAX_TOKENS", &cfg.Ollama.MaxTokens)
	setString("CHATTA_STORE_BACKEND", &cfg.Store.Backend)
	setString("CHATTA_POSTGRES_URL", &cfg.Store.PostgresURL)
	setString("CHATTA_SQLITE_PATH", &cfg.Store.SQLitePath)
	setInt("CHATTA_TOP_K", &cfg.Store.TopK)
	setString("CHATTA_REDIS_ADDR", &cfg.Redis.Addr)
	setString("CHATTA_REDIS_KEY", &cfg.Redis.Key)
	setString("CHATTA_TRACE_STORE_URL", &cfg.Feedback.TraceStoreURL)
	setBool("CHATTA_TRACING_ENABLED", &cfg.Tracing.Enabled)
	setString("CHATTA_TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "postgres":
		if cfg.Store.PostgresURL == "" {
			return fmt.Errorf("store.postgres_url is required for the postgres backend")
		}
	case "sqlite":
		if cfg.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Ollama.EmbedDim <= 0 {
		return fmt.Errorf("invalid embedding dimension %d", cfg.Ollama.EmbedDim)
	}
	return nil
}
