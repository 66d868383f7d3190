// Package extract turns one document's retrieved passages into a structured
// per-document answer.
package extract

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docthemes/internal/llm"
)

const (
	FallbackAnswer   = "Error processing this document."
	FallbackCitation = "Unknown"
)

// DocumentAnswer is the model's answer to the query from a single document.
type DocumentAnswer struct {
	DocumentID      string `json:"document_id"`
	Filename        string `json:"filename"`
	ExtractedAnswer string `json:"extracted_answer"`
	Citation        string `json:"citation"`
	Relevance       int    `json:"relevance"`
}

// Outcome records how an answer was obtained.
type Outcome string

const (
	OutcomeParsed   Outcome = "parsed"
	OutcomeRepaired Outcome = "repaired"
	OutcomeFallback Outcome = "fallback"
)

// Result is the answer plus how it was reached. Err is set only for
// OutcomeFallback and holds the last failure.
type Result struct {
	Answer  DocumentAnswer
	Outcome Outcome
	Err     error
}

// ParseError is a structured-output decode or validation failure.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse answer: %v (raw: %s)", e.Err, llm.Truncate(e.Raw, 200))
}

func (e *ParseError) Unwrap() error { return e.Err }

// Fallback is the fixed answer used when a document cannot be processed.
func Fallback(documentID, filename string) DocumentAnswer {
	return DocumentAnswer{
		DocumentID:      documentID,
		Filename:        filename,
		ExtractedAnswer: FallbackAnswer,
		Citation:        FallbackCitation,
		Relevance:       1,
	}
}

// MinRelevance is the lowest relevance an answer needs to feed themes and synthesis.
const MinRelevance = 3

// Relevant returns the answers at or above MinRelevance, in order.
func Relevant(answers []DocumentAnswer) []DocumentAnswer {
	var out []DocumentAnswer
	for _, a := range answers {
		if a.Relevance >= MinRelevance {
			out = append(out, a)
		}
	}
	return out
}

// ContextBlock renders answers as "Document {id} ({filename}): {answer}"
// entries separated by blank lines.
func ContextBlock(answers []DocumentAnswer) string {
	parts := make([]string, len(answers))
	for i, a := range answers {
		parts[i] = fmt.Sprintf("Document %s (%s): %s", a.DocumentID, a.Filename, a.ExtractedAnswer)
	}
	return strings.Join(parts, "\n\n")
}
