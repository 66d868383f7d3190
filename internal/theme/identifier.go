package theme

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/llm"
)

var validate = validator.New()

// Identifier makes at most one model call per query. Failures yield zero
// themes; there is no repair attempt.
type Identifier struct {
	llm llm.Client
	log *slog.Logger
}

func New(client llm.Client, log *slog.Logger) *Identifier {
	return &Identifier{llm: client, log: log}
}

// Identify asks for themes across the answers with relevance >= 3. When none
// qualify no call is made. Supporting document ids must come from answers.
func (i *Identifier) Identify(ctx context.Context, answers []extract.DocumentAnswer, query string) Result {
	relevant := extract.Relevant(answers)
	if len(relevant) == 0 {
		return Result{Themes: []Theme{}, Outcome: OutcomeSkipped}
	}

	out, err := i.llm.Complete(ctx, request(query, relevant))
	if err != nil {
		i.log.Warn("theme identification failed", "error", err, "upstream", llm.IsUpstream(err))
		return Result{Themes: []Theme{}, Outcome: OutcomeFailed, Err: err}
	}

	known := make(map[string]bool, len(answers))
	for _, a := range answers {
		known[a.DocumentID] = true
	}
	themes, err := parseThemes(out, known)
	if err != nil {
		i.log.Warn("theme reply rejected", "error", err)
		return Result{Themes: []Theme{}, Outcome: OutcomeFailed, Err: err}
	}
	return Result{Themes: themes, Outcome: OutcomeParsed}
}

func parseThemes(raw string, known map[string]bool) ([]Theme, error) {
	text := llm.ExtractJSON(llm.StripCodeBlock(llm.Normalize(raw)), '[')

	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	var themes []Theme
	if err := dec.Decode(&themes); err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("decode themes json: %w", err)}
	}
	if themes == nil {
		return nil, &ParseError{Raw: raw, Err: errors.New("theme list is null")}
	}

	for idx := range themes {
		t := &themes[idx]
		t.ThemeName = strings.TrimSpace(t.ThemeName)
		t.ThemeDescription = strings.TrimSpace(t.ThemeDescription)
		if err := validate.Struct(t); err != nil {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("theme %d: %w", idx, err)}
		}
		ids, err := supportingSet(t.SupportingDocuments, known)
		if err != nil {
			return nil, &ParseError{Raw: raw, Err: fmt.Errorf("theme %q: %w", t.ThemeName, err)}
		}
		t.SupportingDocuments = ids
	}
	return themes, nil
}

// supportingSet de-duplicates ids in first-seen order and rejects unknown ones.
func supportingSet(ids []string, known map[string]bool) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if !known[id] {
			return nil, fmt.Errorf("unknown supporting document %q", id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
