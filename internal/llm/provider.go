package llm

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/docthemes/internal/config"
)

// Provider names accepted by New.
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Options carries provider-independent client settings.
type Options struct {
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Stats       *LLMStats
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return 2048
	}
	return o.MaxTokens
}

func (o Options) stats() *LLMStats {
	if o.Stats == nil {
		return NewLLMStats(time.Hour)
	}
	return o.Stats
}

// New builds the client for a provider name.
func New(provider, apiKey, model string, opts Options) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderGroq, "":
		if opts.BaseURL == "" {
			opts.BaseURL = groqBaseURL
		}
		return NewOpenAIClient(apiKey, model, opts), nil
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model, opts), nil
	case ProviderAnthropic:
		return NewClaudeClient(apiKey, model, opts), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}

// NewFromConfig builds the configured provider client wrapped in a RetryClient.
func NewFromConfig(cfg config.Config, stats *LLMStats, log *slog.Logger) (Client, error) {
	c, err := New(cfg.LLMProvider, cfg.LLMAPIKey, cfg.LLMModel, Options{
		BaseURL:     cfg.LLMBaseURL,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Stats:       stats,
	})
	if err != nil {
		return nil, err
	}
	return NewRetryClient(c, cfg.LLMMaxRetries, log), nil
}
