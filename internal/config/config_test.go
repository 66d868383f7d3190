package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("TOP_K", "")
	t.Setenv("QUERY_TIMEOUT", "")
	t.Setenv("CHUNK_STORE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != "groq" {
		t.Errorf("expected groq provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMModel != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected default model %q", cfg.LLMModel)
	}
	if cfg.TopK != 10 || cfg.MaxConcurrentExtract != 5 {
		t.Errorf("unexpected pipeline defaults: top_k=%d extract=%d", cfg.TopK, cfg.MaxConcurrentExtract)
	}
	if cfg.QueryTimeout != 90*time.Second {
		t.Errorf("expected 90s query timeout, got %s", cfg.QueryTimeout)
	}
	if cfg.ChunkStore != StoreMemory {
		t.Errorf("expected memory store, got %q", cfg.ChunkStore)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LLM_PROVIDER", "Anthropic")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("TOP_K", "25")
	t.Setenv("QUERY_TIMEOUT", "15s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("expected lowercased provider, got %q", cfg.LLMProvider)
	}
	if cfg.LLMModel != "claude-sonnet-4-5-20250929" {
		t.Errorf("unexpected model %q", cfg.LLMModel)
	}
	if cfg.LLMAPIKey != "sk-ant" {
		t.Errorf("expected provider key fallback, got %q", cfg.LLMAPIKey)
	}
	if cfg.TopK != 25 {
		t.Errorf("expected top_k 25, got %d", cfg.TopK)
	}
	if cfg.QueryTimeout != 15*time.Second {
		t.Errorf("expected 15s, got %s", cfg.QueryTimeout)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.CORSAllowedOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("expected origins %v, got %v", want, cfg.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TOP_K", "many")
	t.Setenv("WORKER_COUNT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 10 {
		t.Errorf("expected default top_k, got %d", cfg.TopK)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected clamped worker count, got %d", cfg.WorkerCount)
	}
}

func TestLoad_FileOverlaysEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docthemes.yaml")
	yml := "top_k: 3\nquery_timeout: 45s\nllm_provider: openai\nchunk_store: postgres\ndatabase_url: postgres://localhost/docs\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TOP_K", "25")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("MAX_CONCURRENT_EXTRACT", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TopK != 3 {
		t.Errorf("expected file top_k 3, got %d", cfg.TopK)
	}
	if cfg.QueryTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.QueryTimeout)
	}
	if cfg.MaxConcurrentExtract != 8 {
		t.Errorf("expected env value to survive overlay, got %d", cfg.MaxConcurrentExtract)
	}
	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("expected openai default model, got %q", cfg.LLMModel)
	}
	if cfg.ChunkStore != StorePostgres || cfg.DatabaseURL == "" {
		t.Errorf("expected postgres settings from file, got %q %q", cfg.ChunkStore, cfg.DatabaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	base := Config{LLMProvider: "groq", LLMAPIKey: "k", ChunkStore: StoreMemory}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.LLMAPIKey = "" }, "LLM_API_KEY is required"},
		{"bad provider", func(c *Config) { c.LLMProvider = "bard" }, "LLM_PROVIDER"},
		{"postgres without dsn", func(c *Config) { c.ChunkStore = StorePostgres }, "DATABASE_URL"},
		{"unknown store", func(c *Config) { c.ChunkStore = "sqlite" }, "CHUNK_STORE"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateServer_RequiresAPIKey(t *testing.T) {
	cfg := Config{LLMProvider: "groq", LLMAPIKey: "k", ChunkStore: StoreMemory}
	err := cfg.ValidateServer()
	if err == nil || !strings.Contains(err.Error(), "DOCTHEMES_API_KEY") {
		t.Fatalf("expected API key error, got %v", err)
	}
	cfg.APIKey = "secret"
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("expected valid server config, got %v", err)
	}
}
