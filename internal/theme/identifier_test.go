package theme

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/llm"
	"github.com/dgallion1/docthemes/internal/llm/llmtest"
)

var answers = []extract.DocumentAnswer{
	{DocumentID: "d1", Filename: "a.pdf", ExtractedAnswer: "Fines were raised.", Citation: "Page 1", Relevance: 9},
	{DocumentID: "d2", Filename: "b.pdf", ExtractedAnswer: "Penalties increased.", Citation: "Page 4", Relevance: 7},
	{DocumentID: "d3", Filename: "c.txt", ExtractedAnswer: "Unrelated.", Citation: "Unknown", Relevance: 1},
}

func newTestIdentifier(stub *llmtest.Stub) *Identifier {
	return New(stub, slog.New(slog.DiscardHandler))
}

func TestIdentify_ParsesThemes(t *testing.T) {
	reply := "```json\n[{\"theme_name\": \"Stricter enforcement\", \"theme_description\": \"Both raise penalties.\", \"supporting_documents\": [\"d1\", \"d2\", \"d1\"], \"confidence\": 8}]\n```"
	stub := llmtest.New().On(llm.StageTheme, llmtest.Reply{Text: reply})

	res := newTestIdentifier(stub).Identify(context.Background(), answers, "what changed?")

	require.Equal(t, OutcomeParsed, res.Outcome)
	require.NoError(t, res.Err)
	require.Len(t, res.Themes, 1)
	assert.Equal(t, Theme{
		ThemeName:           "Stricter enforcement",
		ThemeDescription:    "Both raise penalties.",
		SupportingDocuments: []string{"d1", "d2"},
		Confidence:          8,
	}, res.Themes[0])
}

func TestIdentify_PromptHoldsOnlyRelevantAnswers(t *testing.T) {
	stub := llmtest.New().On(llm.StageTheme, llmtest.Reply{Text: "[]"})

	res := newTestIdentifier(stub).Identify(context.Background(), answers, "q")

	require.Equal(t, OutcomeParsed, res.Outcome)
	assert.Empty(t, res.Themes)
	calls := stub.Calls()
	require.Len(t, calls, 1)
	prompt := calls[0].Messages[0].Content
	assert.Contains(t, prompt, "Document d1 (a.pdf): Fines were raised.\n\nDocument d2 (b.pdf): Penalties increased.")
	assert.NotContains(t, prompt, "d3")
}

func TestIdentify_SkipsWithoutRelevantAnswers(t *testing.T) {
	stub := llmtest.New()
	low := []extract.DocumentAnswer{extract.Fallback("d1", "a.pdf"), {DocumentID: "d2", Relevance: 2}}

	res := newTestIdentifier(stub).Identify(context.Background(), low, "q")

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.NotNil(t, res.Themes)
	assert.Empty(t, res.Themes)
	assert.Empty(t, stub.Calls())
}

func TestIdentify_RejectsBadReplies(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "Here are some themes: enforcement and cost."},
		{"object instead of list", `{"theme_name": "x", "confidence": 5}`},
		{"unknown field", `[{"theme_name": "x", "theme_description": "y", "supporting_documents": ["d1"], "confidence": 5, "score": 3}]`},
		{"missing name", `[{"theme_description": "y", "supporting_documents": ["d1"], "confidence": 5}]`},
		{"confidence too high", `[{"theme_name": "x", "supporting_documents": ["d1"], "confidence": 11}]`},
		{"confidence missing", `[{"theme_name": "x", "supporting_documents": ["d1"]}]`},
		{"unknown document", `[{"theme_name": "x", "supporting_documents": ["d1", "DOC404"], "confidence": 5}]`},
		{"null", `null`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := llmtest.New().On(llm.StageTheme, llmtest.Reply{Text: tc.reply})

			res := newTestIdentifier(stub).Identify(context.Background(), answers, "q")

			assert.Equal(t, OutcomeFailed, res.Outcome)
			assert.Empty(t, res.Themes)
			var perr *ParseError
			assert.True(t, errors.As(res.Err, &perr), "got %v", res.Err)
			assert.Len(t, stub.Calls(), 1, "no repair attempt")
		})
	}
}

func TestIdentify_AcceptsLowRelevanceSupportingDocument(t *testing.T) {
	reply := `[{"theme_name": "x", "theme_description": "y", "supporting_documents": ["d3"], "confidence": 2}]`
	stub := llmtest.New().On(llm.StageTheme, llmtest.Reply{Text: reply})

	res := newTestIdentifier(stub).Identify(context.Background(), answers, "q")

	require.Equal(t, OutcomeParsed, res.Outcome)
	assert.Equal(t, []string{"d3"}, res.Themes[0].SupportingDocuments)
}

func TestIdentify_UpstreamErrorYieldsNoThemes(t *testing.T) {
	upstream := &llm.RetryableError{StatusCode: 503, Message: "overloaded"}
	stub := llmtest.New().On(llm.StageTheme, llmtest.Reply{Err: upstream})

	res := newTestIdentifier(stub).Identify(context.Background(), answers, "q")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, res.Themes)
	assert.ErrorIs(t, res.Err, upstream)
}
