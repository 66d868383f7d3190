package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docthemes/internal/config"
)

func TestOpenAIClient_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "llama-3.3-70b-versatile",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "{\"ok\": true}"}}]
		}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "llama-3.3-70b-versatile", Options{BaseURL: srv.URL + "/"})
	text, err := c.Complete(context.Background(), UserRequest("extract", "system prompt", "user prompt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != `{"ok": true}` {
		t.Errorf("unexpected content %q", text)
	}

	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %v", body["messages"])
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected first message role system, got %v", first["role"])
	}
	if body["model"] != "llama-3.3-70b-versatile" {
		t.Errorf("unexpected model %v", body["model"])
	}
}

func TestOpenAIClient_RateLimitIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient("key", "m", Options{BaseURL: srv.URL + "/"})
	_, err := c.Complete(context.Background(), UserRequest("extract", "s", "u"))
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantErr  bool
	}{
		{"groq", false},
		{"", false},
		{"openai", false},
		{"anthropic", false},
		{"bard", true},
	}
	for _, tc := range tests {
		c, err := New(tc.provider, "k", "m", Options{})
		if (err != nil) != tc.wantErr {
			t.Errorf("provider %q: err=%v, wantErr=%v", tc.provider, err, tc.wantErr)
			continue
		}
		if err == nil && c.Model() != "m" {
			t.Errorf("provider %q: expected model m, got %q", tc.provider, c.Model())
		}
	}
}

func TestNewFromConfig_WrapsInRetryClient(t *testing.T) {
	cfg := config.Config{LLMProvider: "openai", LLMAPIKey: "k", LLMModel: "gpt-4o-mini", LLMMaxRetries: 2}
	c, err := NewFromConfig(cfg, NewLLMStats(time.Minute), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, ok := c.(*RetryClient); !ok {
		t.Fatalf("expected *RetryClient, got %T", c)
	}
	if c.Model() != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", c.Model())
	}

	cfg.LLMProvider = "bard"
	if _, err := NewFromConfig(cfg, nil, slog.New(slog.DiscardHandler)); err == nil {
		t.Error("expected unknown provider to fail")
	}
}
