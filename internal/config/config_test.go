package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("CHATTA_STORE_BACKEND", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		// Default backend is postgres and needs a URL; missing file plus no
		// env must fail validation rather than return a half-usable config.
		t.Fatalf("expected validation error, got config %+v", cfg)
	}
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatta.yaml")
	body := `
server:
  port: 9001
ollama:
  gen_model: mistral
store:
  backend: sqlite
  sqlite_path: /tmp/test.db
instructions:
  - Be kind
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Ollama.GenModel != "mistral" {
		t.Errorf("gen_model = %q", cfg.Ollama.GenModel)
	}
	// Untouched fields keep defaults.
	if cfg.Ollama.EmbedModel != "all-minilm:latest" {
		t.Errorf("embed_model = %q, want default", cfg.Ollama.EmbedModel)
	}
	if cfg.Ollama.EmbedDim != 384 {
		t.Errorf("embed_dim = %d, want default 384", cfg.Ollama.EmbedDim)
	}
	if len(cfg.Instructions) != 1 || cfg.Instructions[0] != "Be kind" {
		t.Errorf("instructions = %v", cfg.Instructions)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatta.yaml")
	body := `
store:
  backend: sqlite
  sqlite_path: /tmp/test.db
ollama:
  max_tokens: 100
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATTA_MAX_TOKENS", "500")
	t.Setenv("CHATTA_REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ollama.MaxTokens != 500 {
		t.Errorf("max_tokens = %d, env override lost", cfg.Ollama.MaxTokens)
	}
	if cfg.Redis.Addr != "redis:6380" {
		t.Errorf("redis addr = %q", cfg.Redis.Addr)
	}
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatta.yaml")
	if err := os.WriteFile(path, []byte("store:\n  backend: lancedb\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown store backend")
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatta.yaml")
	if err := os.WriteFile(path, []byte("server: [not: a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
