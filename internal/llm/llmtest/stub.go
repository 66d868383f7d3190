// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"github.com/dgallion1/docthemes/internal/llm"
)

// Reply is one scripted answer.
type Reply struct {
	Text string
	Err  error
}

// Stub answers requests from per-stage queues, or from Handler when set.
// Safe for concurrent use.
type Stub struct {
	mu      sync.Mutex
	queues  map[string][]Reply
	calls   []llm.Request
	Handler func(ctx context.Context, req llm.Request) (string, error)
}

var _ llm.Client = (*Stub)(nil)

func New() *Stub {
	return &Stub{queues: make(map[string][]Reply)}
}

// On appends replies for a stage.
func (s *Stub) On(stage string, replies ...Reply) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[stage] = append(s.queues[stage], replies...)
	return s
}

func (s *Stub) Model() string { return "stub" }

func (s *Stub) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	handler := s.Handler
	var reply *Reply
	if q := s.queues[req.Stage]; len(q) > 0 {
		reply = &q[0]
		s.queues[req.Stage] = q[1:]
	}
	s.mu.Unlock()

	if handler != nil {
		return handler(ctx, req)
	}
	if reply == nil {
		return "", errors.New("llmtest: no reply scripted for stage " + req.Stage)
	}
	return reply.Text, reply.Err
}

// Calls returns every request received so far.
func (s *Stub) Calls() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Request, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor counts requests for one stage.
func (s *Stub) CallsFor(stage string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Stage == stage {
			n++
		}
	}
	return n
}
