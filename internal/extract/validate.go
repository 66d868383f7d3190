package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/docthemes/internal/llm"
)

var validate = validator.New()

// modelAnswer is the JSON object the model is asked to produce.
type modelAnswer struct {
	DocID           string `json:"doc_id"`
	Filename        string `json:"filename"`
	ExtractedAnswer string `json:"extracted_answer" validate:"required,max=8000"`
	Citation        string `json:"citation" validate:"max=500"`
	Relevance       int    `json:"relevance" validate:"min=1,max=10"`
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	return "invalid answer: " + strings.Join(parts, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	fields := make(map[string]string, len(errs))
	for _, err := range errs {
		switch err.Tag() {
		case "required":
			fields[err.Field()] = fmt.Sprintf("%s is required", err.Field())
		case "min":
			fields[err.Field()] = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			fields[err.Field()] = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		default:
			fields[err.Field()] = fmt.Sprintf("%s failed %q", err.Field(), err.Tag())
		}
	}
	return &ValidationError{Fields: fields}
}

func validateAnswer(a *modelAnswer) error {
	a.ExtractedAnswer = strings.TrimSpace(a.ExtractedAnswer)
	a.Citation = strings.TrimSpace(a.Citation)
	if err := validate.Struct(a); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newValidationError(verrs)
		}
		return err
	}
	if a.Citation == "" {
		a.Citation = FallbackCitation
	}
	return nil
}

// parseAnswer normalizes raw model output and decodes it into a DocumentAnswer
// for the given document. Identity always comes from the caller.
func parseAnswer(raw, documentID, filename string) (DocumentAnswer, error) {
	text := llm.ExtractJSON(llm.StripCodeBlock(llm.Normalize(raw)), '{')

	var ma modelAnswer
	if err := json.Unmarshal([]byte(text), &ma); err != nil {
		return DocumentAnswer{}, &ParseError{Raw: raw, Err: fmt.Errorf("decode answer json: %w", err)}
	}
	if err := validateAnswer(&ma); err != nil {
		return DocumentAnswer{}, &ParseError{Raw: raw, Err: err}
	}
	return DocumentAnswer{
		DocumentID:      documentID,
		Filename:        filename,
		ExtractedAnswer: ma.ExtractedAnswer,
		Citation:        ma.Citation,
		Relevance:       ma.Relevance,
	}, nil
}
