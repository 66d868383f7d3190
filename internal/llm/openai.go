package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// Groq is the default; set BaseURL for OpenAI proper or a local gateway.
type OpenAIClient struct {
	client      openai.Client
	model       string
	maxTokens   int
	temperature float64

	Stats *LLMStats
}

func NewOpenAIClient(apiKey, model string, opts Options) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0), // RetryClient owns retries
		option.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &OpenAIClient{
		client:      openai.NewClient(reqOpts...),
		model:       model,
		maxTokens:   opts.maxTokens(),
		temperature: opts.Temperature,
		Stats:       opts.stats(),
	}
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Complete sends the conversation and returns the first choice's content.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (text string, err error) {
	defer func(start time.Time) { c.Stats.Observe(req.Stage, start, err) }(time.Now())

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	temperature := c.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    msgs,
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
				return "", &RetryableError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
			}
			return "", &StatusError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
