package extract

import (
	"context"
	"log/slog"

	"github.com/dgallion1/docthemes/internal/llm"
)

// Extractor produces one DocumentAnswer per call and never fails outward.
type Extractor struct {
	llm llm.Client
	log *slog.Logger
}

func New(client llm.Client, log *slog.Logger) *Extractor {
	return &Extractor{llm: client, log: log}
}

type state int

const (
	stateInitial state = iota
	stateRepair
	stateFallback
)

// Extract asks the model for the document's answer to query. A malformed reply
// gets exactly one repair attempt; anything else ends in the fixed fallback.
func (e *Extractor) Extract(ctx context.Context, query, contextText, documentID, filename string) Result {
	log := e.log.With("document_id", documentID, "filename", filename)
	req := initialRequest(query, contextText, documentID, filename)

	var reply string
	var lastErr error
	st := stateInitial
	for {
		switch st {
		case stateInitial:
			out, err := e.llm.Complete(ctx, req)
			if err != nil {
				lastErr = err
				st = stateFallback
				continue
			}
			answer, err := parseAnswer(out, documentID, filename)
			if err == nil {
				return Result{Answer: answer, Outcome: OutcomeParsed}
			}
			log.Warn("answer parse failed, requesting repair", "error", err)
			reply, lastErr = out, err
			st = stateRepair

		case stateRepair:
			out, err := e.llm.Complete(ctx, repairRequest(req, reply, lastErr))
			if err != nil {
				lastErr = err
				st = stateFallback
				continue
			}
			answer, err := parseAnswer(out, documentID, filename)
			if err == nil {
				log.Info("answer repaired")
				return Result{Answer: answer, Outcome: OutcomeRepaired}
			}
			lastErr = err
			st = stateFallback

		case stateFallback:
			log.Warn("using fallback answer", "error", lastErr, "upstream", llm.IsUpstream(lastErr))
			return Result{Answer: Fallback(documentID, filename), Outcome: OutcomeFallback, Err: lastErr}
		}
	}
}
