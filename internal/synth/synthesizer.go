// Package synth writes the final cited answer from per-document answers and themes.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/llm"
	"github.com/dgallion1/docthemes/internal/theme"
)

const SystemPrompt = `You are an expert at synthesizing information from multiple documents.
Create a comprehensive, well-structured answer to the query based on the information from documents and identified themes.
Include specific citations to documents by their IDs to support your points.
Organize your answer by themes when possible.`

const userPrompt = `Query: %s

Document Information:
%s

Identified Themes:
%s

Provide a comprehensive answer to the query, organizing information by themes and citing specific documents.`

// Error is a failed synthesis call. It is fatal to the query.
type Error struct {
	Err error
}

func (e *Error) Error() string { return "synthesize answer: " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

type Synthesizer struct {
	llm llm.Client
	log *slog.Logger
}

func New(client llm.Client, log *slog.Logger) *Synthesizer {
	return &Synthesizer{llm: client, log: log}
}

// Synthesize makes exactly one model call and returns its text verbatim.
func (s *Synthesizer) Synthesize(ctx context.Context, answers []extract.DocumentAnswer, themes []theme.Theme, query string) (string, error) {
	out, err := s.llm.Complete(ctx, llm.UserRequest(llm.StageSynthesize, SystemPrompt, BuildUserPrompt(query, answers, themes)))
	if err != nil {
		s.log.Error("synthesis failed", "error", err, "upstream", llm.IsUpstream(err))
		return "", &Error{Err: err}
	}
	return out, nil
}

// BuildUserPrompt renders the answers with relevance >= 3 and every theme.
func BuildUserPrompt(query string, answers []extract.DocumentAnswer, themes []theme.Theme) string {
	return fmt.Sprintf(userPrompt, query, extract.ContextBlock(extract.Relevant(answers)), ThemeBlock(themes))
}

// ThemeBlock renders themes as Theme/Description/Supporting Documents entries
// separated by blank lines.
func ThemeBlock(themes []theme.Theme) string {
	parts := make([]string, len(themes))
	for i, t := range themes {
		parts[i] = fmt.Sprintf("Theme: %s\nDescription: %s\nSupporting Documents: %s",
			t.ThemeName, t.ThemeDescription, strings.Join(t.SupportingDocuments, ", "))
	}
	return strings.Join(parts, "\n\n")
}
