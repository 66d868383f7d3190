// Package pipeline answers a query over the chunk store: retrieve, extract
// per document, identify themes, synthesize.
package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docthemes/internal/chunkstore"
	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/synth"
	"github.com/dgallion1/docthemes/internal/theme"
)

// ErrEmptyQuery is returned for a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

// RetrievalError wraps a chunk store failure. Run logs it and continues as if
// nothing was retrieved.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return "retrieve chunks: " + e.Err.Error() }

func (e *RetrievalError) Unwrap() error { return e.Err }

// Searcher is the read side of a chunk store.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]chunkstore.Result, error)
}

// Cache stores complete results by query. Key binds a query to the corpus
// as it is when the query starts, and Get and Put both take that key, so a
// result computed before a corpus change is never served after it. A miss is
// (nil, nil).
type Cache interface {
	Key(ctx context.Context, query string) (string, error)
	Get(ctx context.Context, key string) (*Result, error)
	Put(ctx context.Context, key string, r *Result) error
}

type Options struct {
	TopK                 int
	MaxConcurrentExtract int
	// QueryTimeout bounds the extraction stage. Zero means no bound.
	QueryTimeout time.Duration
	// Cache is optional.
	Cache Cache
}

const (
	DefaultTopK                 = 10
	DefaultMaxConcurrentExtract = 5
)

// Pipeline is safe for concurrent queries.
type Pipeline struct {
	store     Searcher
	extractor *extract.Extractor
	themes    *theme.Identifier
	synth     *synth.Synthesizer
	opts      Options
	log       *slog.Logger
}

func New(store Searcher, ext *extract.Extractor, themes *theme.Identifier, syn *synth.Synthesizer, opts Options, log *slog.Logger) *Pipeline {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxConcurrentExtract <= 0 {
		opts.MaxConcurrentExtract = DefaultMaxConcurrentExtract
	}
	return &Pipeline{store: store, extractor: ext, themes: themes, synth: syn, opts: opts, log: log}
}

// Run answers query. The only error besides ErrEmptyQuery is a *synth.Error;
// retrieval, extraction and theme failures degrade the result and are listed
// in its warnings.
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	key := p.cacheKey(ctx, query)
	if cached := p.cached(ctx, key); cached != nil {
		return cached, nil
	}

	res := &Result{
		QueryID:         uuid.NewString(),
		Query:           query,
		DocumentAnswers: []extract.DocumentAnswer{},
		Themes:          []theme.Theme{},
		Warnings:        []string{},
	}
	log := p.log.With("query_id", res.QueryID)
	start := time.Now()

	chunks, err := p.store.Search(ctx, query, p.opts.TopK)
	if err != nil {
		rerr := &RetrievalError{Err: err}
		log.Warn("retrieval failed, continuing with no chunks", "error", rerr)
		res.Warnings = append(res.Warnings, rerr.Error())
		chunks = nil
	}
	if len(chunks) == 0 {
		res.SynthesizedAnswer = NoResultsAnswer
		res.Status = status(res.Warnings)
		log.Info("query answered", "documents", 0, "duration_ms", time.Since(start).Milliseconds())
		return res, nil
	}

	groups := groupChunks(chunks)
	log.Info("chunks retrieved", "chunks", len(chunks), "documents", len(groups))

	for _, r := range p.extractAll(ctx, query, groups) {
		res.DocumentAnswers = append(res.DocumentAnswers, r.Answer)
		if r.Outcome == extract.OutcomeFallback {
			res.Warnings = append(res.Warnings, fmt.Sprintf("document %s: extraction fell back: %v", r.Answer.DocumentID, r.Err))
		}
	}
	slices.SortStableFunc(res.DocumentAnswers, func(a, b extract.DocumentAnswer) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})

	tr := p.themes.Identify(ctx, res.DocumentAnswers, query)
	res.Themes = tr.Themes
	if tr.Outcome == theme.OutcomeFailed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("themes dropped: %v", tr.Err))
	}

	answer, err := p.synth.Synthesize(ctx, res.DocumentAnswers, res.Themes, query)
	if err != nil {
		return nil, err
	}
	res.SynthesizedAnswer = answer
	res.Status = status(res.Warnings)

	log.Info("query answered",
		"documents", len(res.DocumentAnswers),
		"themes", len(res.Themes),
		"theme_outcome", tr.Outcome,
		"status", res.Status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	p.remember(ctx, key, res)
	return res, nil
}

func status(warnings []string) Status {
	if len(warnings) > 0 {
		return StatusPartial
	}
	return StatusComplete
}

// extractAll runs one extraction per group, at most MaxConcurrentExtract at a
// time, under QueryTimeout. Results are returned in group order. A group not
// finished by the deadline gets the fallback answer.
func (p *Pipeline) extractAll(ctx context.Context, query string, groups []docGroup) []extract.Result {
	ectx, cancel := ctx, context.CancelFunc(func() {})
	if p.opts.QueryTimeout > 0 {
		ectx, cancel = context.WithTimeout(ctx, p.opts.QueryTimeout)
	}
	defer cancel()

	results := make([]extract.Result, len(groups))
	sem := make(chan struct{}, p.opts.MaxConcurrentExtract)
	var wg sync.WaitGroup

	for i, g := range groups {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ectx.Done():
				results[i] = timedOut(g, ectx.Err())
				return
			}
			defer func() { <-sem }()

			done := make(chan extract.Result, 1)
			go func() {
				done <- p.extractor.Extract(ectx, query, g.text(), g.DocumentID, g.Filename)
			}()
			select {
			case r := <-done:
				results[i] = r
			case <-ectx.Done():
				results[i] = timedOut(g, ectx.Err())
			}
		}()
	}
	wg.Wait()
	return results
}

func timedOut(g docGroup, err error) extract.Result {
	return extract.Result{
		Answer:  extract.Fallback(g.DocumentID, g.Filename),
		Outcome: extract.OutcomeFallback,
		Err:     fmt.Errorf("extraction not finished: %w", err),
	}
}

// cacheKey returns "" when there is no cache or the key cannot be resolved,
// which turns off both lookup and store for this run.
func (p *Pipeline) cacheKey(ctx context.Context, query string) string {
	if p.opts.Cache == nil {
		return ""
	}
	key, err := p.opts.Cache.Key(ctx, query)
	if err != nil {
		p.log.Warn("cache key failed", "error", err)
		return ""
	}
	return key
}

func (p *Pipeline) cached(ctx context.Context, key string) *Result {
	if key == "" {
		return nil
	}
	res, err := p.opts.Cache.Get(ctx, key)
	if err != nil {
		p.log.Warn("cache lookup failed", "error", err)
		return nil
	}
	if res != nil {
		res.Cached = true
	}
	return res
}

// remember caches complete results only.
func (p *Pipeline) remember(ctx context.Context, key string, res *Result) {
	if key == "" || res.Status != StatusComplete {
		return
	}
	if err := p.opts.Cache.Put(ctx, key, res); err != nil {
		p.log.Warn("cache store failed", "error", err, "query_id", res.QueryID)
	}
}
