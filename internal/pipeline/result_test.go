package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docthemes/internal/chunkstore"
	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/theme"
)

func sampleResult() *Result {
	return &Result{
		QueryID: "q1",
		Query:   "what changed?",
		DocumentAnswers: []extract.DocumentAnswer{
			{DocumentID: "docA", Filename: "a.pdf", ExtractedAnswer: "A", Citation: "p1", Relevance: 9},
			{DocumentID: "docB", Filename: "b.pdf", ExtractedAnswer: "B", Citation: "p2", Relevance: 6},
		},
		Themes: []theme.Theme{
			{ThemeName: "Shared", ThemeDescription: "both", SupportingDocuments: []string{"docA", "docB"}, Confidence: 8},
			{ThemeName: "OnlyB", ThemeDescription: "b", SupportingDocuments: []string{"docB"}, Confidence: 4},
		},
		SynthesizedAnswer: "Answer.",
		Status:            StatusComplete,
		Warnings:          []string{},
	}
}

func TestFilterDocuments_RestrictsAnswersAndThemes(t *testing.T) {
	r := sampleResult()

	got := r.FilterDocuments([]string{"docA"})

	require.Len(t, got.DocumentAnswers, 1)
	assert.Equal(t, "docA", got.DocumentAnswers[0].DocumentID)
	require.Len(t, got.Themes, 2, "themes are kept even when no supporting document survives")
	assert.Equal(t, []string{"docA"}, got.Themes[0].SupportingDocuments)
	assert.Equal(t, []string{}, got.Themes[1].SupportingDocuments)
	assert.Equal(t, "Answer.", got.SynthesizedAnswer)

	assert.Len(t, r.DocumentAnswers, 2, "original untouched")
	assert.Equal(t, []string{"docA", "docB"}, r.Themes[0].SupportingDocuments)
}

func TestFilterDocuments_EmptyIDsReturnsCopy(t *testing.T) {
	r := sampleResult()

	for _, ids := range [][]string{nil, {}} {
		got := r.FilterDocuments(ids)
		assert.Equal(t, r, got)
		assert.NotSame(t, r, got)

		got.Themes[0].SupportingDocuments[0] = "mutated"
		assert.Equal(t, "docA", r.Themes[0].SupportingDocuments[0])
	}
}

func TestFilterDocuments_UnknownIDs(t *testing.T) {
	got := sampleResult().FilterDocuments([]string{"nope"})
	assert.Empty(t, got.DocumentAnswers)
	assert.NotNil(t, got.DocumentAnswers)
	for _, th := range got.Themes {
		assert.Empty(t, th.SupportingDocuments)
	}
}

func TestGroupChunks(t *testing.T) {
	chunks := []chunkstore.Result{
		hit("d2", "two.pdf", "b1"),
		hit("d1", "one.pdf", "a1"),
		hit("d2", "other-name.pdf", "b2"),
		hit("d3", "three.txt", "c1"),
		hit("d1", "one.pdf", "a2"),
	}

	groups := groupChunks(chunks)

	require.Len(t, groups, 3)
	assert.Equal(t, "d2", groups[0].DocumentID)
	assert.Equal(t, "two.pdf", groups[0].Filename)
	assert.Equal(t, "b1\n\nb2", groups[0].text())
	assert.Equal(t, "d1", groups[1].DocumentID)
	assert.Equal(t, "a1\n\na2", groups[1].text())
	assert.Equal(t, "d3", groups[2].DocumentID)

	total := 0
	for _, g := range groups {
		total += len(g.texts)
	}
	assert.Equal(t, len(chunks), total)
}

func TestGroupChunks_Empty(t *testing.T) {
	assert.Empty(t, groupChunks(nil))
}
