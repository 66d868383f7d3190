package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// LLM provider
	LLMProvider    string  `yaml:"llm_provider"`
	LLMModel       string  `yaml:"llm_model"`
	LLMBaseURL     string  `yaml:"llm_base_url"`
	LLMAPIKey      string  `yaml:"llm_api_key"`
	LLMTemperature float64 `yaml:"llm_temperature"`
	LLMMaxTokens   int     `yaml:"llm_max_tokens"`
	LLMMaxRetries  int     `yaml:"llm_max_retries"`

	// Query pipeline
	TopK                 int           `yaml:"top_k"`
	MaxConcurrentExtract int           `yaml:"max_concurrent_extract"`
	QueryTimeout         time.Duration `yaml:"query_timeout"`

	// Storage
	ChunkStore  string        `yaml:"chunk_store"`
	DatabaseURL string        `yaml:"database_url"`
	RedisURL    string        `yaml:"redis_url"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	// Ingestion worker pool
	WorkerCount        int `yaml:"worker_count"`
	MaxQueueSize       int `yaml:"max_queue_size"`
	MaxConcurrentStore int `yaml:"max_concurrent_store"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Chunking defaults, in characters
	DefaultChunkSize    int `yaml:"default_chunk_size"`
	DefaultChunkOverlap int `yaml:"default_chunk_overlap"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Chunk store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

var defaultModels = map[string]string{
	"groq":      "llama-3.3-70b-versatile",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-sonnet-4-5-20250929",
}

var providerKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
}

// Load reads an optional .env, then the environment, then the YAML file named
// by CONFIG_FILE, which wins over the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// FromEnv builds a Config from environment variables alone. Defaults are not
// yet clamped.
func FromEnv() Config {
	provider := strings.ToLower(envOr("LLM_PROVIDER", "groq"))
	return Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("DOCTHEMES_API_KEY"),

		LLMProvider:    provider,
		LLMModel:       os.Getenv("LLM_MODEL"),
		LLMBaseURL:     os.Getenv("LLM_BASE_URL"),
		LLMAPIKey:      os.Getenv("LLM_API_KEY"),
		LLMTemperature: envFloat("LLM_TEMPERATURE", 0),
		LLMMaxTokens:   envInt("LLM_MAX_TOKENS", 2048),
		LLMMaxRetries:  envInt("LLM_MAX_RETRIES", 3),

		TopK:                 envInt("TOP_K", 10),
		MaxConcurrentExtract: envInt("MAX_CONCURRENT_EXTRACT", 5),
		QueryTimeout:         envDuration("QUERY_TIMEOUT", 90*time.Second),

		ChunkStore:  strings.ToLower(envOr("CHUNK_STORE", StoreMemory)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		CacheTTL:    envDuration("CACHE_TTL", 10*time.Minute),

		WorkerCount:        envInt("WORKER_COUNT", 4),
		MaxQueueSize:       envInt("MAX_QUEUE_SIZE", 100),
		MaxConcurrentStore: envInt("MAX_CONCURRENT_STORE", 4),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		DefaultChunkSize:    envInt("DEFAULT_CHUNK_SIZE", 1000),
		DefaultChunkOverlap: envInt("DEFAULT_CHUNK_OVERLAP", 200),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		CORSAllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// ApplyFile overlays the keys present in a YAML file onto cfg.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.LLMProvider = strings.ToLower(c.LLMProvider)
	c.ChunkStore = strings.ToLower(c.ChunkStore)
	return nil
}

func (c *Config) applyDefaults() {
	if c.LLMProvider == "" {
		c.LLMProvider = "groq"
	}
	if c.LLMModel == "" {
		c.LLMModel = defaultModels[c.LLMProvider]
	}
	if c.LLMAPIKey == "" {
		c.LLMAPIKey = os.Getenv(providerKeyEnv[c.LLMProvider])
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = 2048
	}
	if c.LLMMaxRetries < 0 {
		c.LLMMaxRetries = 0
	}
	if c.TopK <= 0 {
		c.TopK = 10
	}
	if c.MaxConcurrentExtract <= 0 {
		c.MaxConcurrentExtract = 5
	}
	if c.QueryTimeout < 0 {
		c.QueryTimeout = 0
	}
	if c.ChunkStore == "" {
		c.ChunkStore = StoreMemory
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.MaxConcurrentStore <= 0 {
		c.MaxConcurrentStore = 4
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 52428800
	}
	if c.DefaultChunkSize <= 0 {
		c.DefaultChunkSize = 1000
	}
	if c.DefaultChunkOverlap < 0 {
		c.DefaultChunkOverlap = 200
	}
	if c.JobTTL <= 0 {
		c.JobTTL = 1 * time.Hour
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
}

// Validate reports settings every entry point needs.
func (c Config) Validate() error {
	var errs []error
	if _, ok := defaultModels[c.LLMProvider]; !ok {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of groq, openai, anthropic", c.LLMProvider))
	}
	if c.LLMAPIKey == "" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	switch c.ChunkStore {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when CHUNK_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("CHUNK_STORE %q is not one of memory, postgres", c.ChunkStore))
	}
	return errors.Join(errs...)
}

// ValidateServer adds the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	err := c.Validate()
	if c.APIKey == "" {
		err = errors.Join(err, errors.New("DOCTHEMES_API_KEY is required"))
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
