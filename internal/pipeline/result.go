package pipeline

import (
	"slices"

	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/theme"
)

// NoResultsAnswer is the synthesized answer when retrieval finds nothing.
const NoResultsAnswer = "No relevant documents were found for this query."

// Status reports whether every stage produced model output.
type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
)

// Result is the answer to one query. DocumentAnswers is sorted by relevance,
// highest first, with ties in retrieval order.
type Result struct {
	QueryID           string                   `json:"query_id"`
	Query             string                   `json:"query"`
	DocumentAnswers   []extract.DocumentAnswer `json:"document_answers"`
	Themes            []theme.Theme            `json:"themes"`
	SynthesizedAnswer string                   `json:"synthesized_answer"`
	Status            Status                   `json:"status"`
	Warnings          []string                 `json:"warnings"`
	Cached            bool                     `json:"cached"`
}

// FilterDocuments returns a copy restricted to documentIDs. Answers from other
// documents are dropped; every theme is kept with its supporting documents
// narrowed to documentIDs, possibly to none. An empty documentIDs returns an
// unfiltered copy.
func (r *Result) FilterDocuments(documentIDs []string) *Result {
	out := *r
	out.Warnings = slices.Clone(r.Warnings)
	if len(documentIDs) == 0 {
		out.DocumentAnswers = slices.Clone(r.DocumentAnswers)
		out.Themes = cloneThemes(r.Themes)
		return &out
	}

	keep := make(map[string]bool, len(documentIDs))
	for _, id := range documentIDs {
		keep[id] = true
	}

	out.DocumentAnswers = make([]extract.DocumentAnswer, 0, len(r.DocumentAnswers))
	for _, a := range r.DocumentAnswers {
		if keep[a.DocumentID] {
			out.DocumentAnswers = append(out.DocumentAnswers, a)
		}
	}

	out.Themes = make([]theme.Theme, len(r.Themes))
	for i, t := range r.Themes {
		t.SupportingDocuments = slices.DeleteFunc(slices.Clone(t.SupportingDocuments), func(id string) bool {
			return !keep[id]
		})
		if t.SupportingDocuments == nil {
			t.SupportingDocuments = []string{}
		}
		out.Themes[i] = t
	}
	return &out
}

func cloneThemes(themes []theme.Theme) []theme.Theme {
	out := make([]theme.Theme, len(themes))
	for i, t := range themes {
		t.SupportingDocuments = slices.Clone(t.SupportingDocuments)
		out[i] = t
	}
	return out
}
