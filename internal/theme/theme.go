// Package theme clusters per-document answers into cross-document themes.
package theme

import (
	"fmt"

	"github.com/dgallion1/docthemes/internal/llm"
)

// Theme is a pattern shared by several documents' answers.
type Theme struct {
	ThemeName           string   `json:"theme_name" validate:"required"`
	ThemeDescription    string   `json:"theme_description"`
	SupportingDocuments []string `json:"supporting_documents"`
	Confidence          int      `json:"confidence" validate:"min=1,max=10"`
}

// Outcome records how a theme set was obtained.
type Outcome string

const (
	OutcomeParsed  Outcome = "parsed"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result holds the themes and how they were reached. Themes is never nil.
type Result struct {
	Themes  []Theme
	Outcome Outcome
	Err     error
}

// ParseError is a malformed or invalid theme reply.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse themes: %v (raw: %s)", e.Err, llm.Truncate(e.Raw, 200))
}

func (e *ParseError) Unwrap() error { return e.Err }
