// Package llm wraps the chat-completion providers used by the query pipeline
// and the helpers shared by every stage that parses model output.
package llm

import "context"

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Stage labels for the pipeline's calls.
const (
	StageExtract    = "extract"
	StageRepair     = "extract_repair"
	StageTheme      = "theme"
	StageSynthesize = "synthesize"
)

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Request is a single chat completion call. System is sent separately from the
// turns because providers place it differently. Stage labels the call in LLMStats.
type Request struct {
	Stage       string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Client completes a chat conversation and returns the model's text.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// UserRequest is a convenience for the common system + one user turn shape.
func UserRequest(stage, system, user string) Request {
	return Request{
		Stage:    stage,
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}
