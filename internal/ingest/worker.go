package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docthemes/internal/chunker"
	"github.com/dgallion1/docthemes/internal/chunkstore"
	"github.com/dgallion1/docthemes/internal/doctree"
	"github.com/dgallion1/docthemes/internal/parser"
)

// Worker runs jobs one at a time. Workers share the store and dedup index.
type Worker struct {
	store      chunkstore.Store
	hashes     *hashIndex
	cache      Invalidator
	log        *slog.Logger
	chunkCfg   chunker.Config
	parserOpts parser.Options

	batchSize          int
	maxConcurrentStore int
}

// Process takes a job to a terminal status. Failures end up on the job, not
// in a return value.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	data := job.takeData()

	job.SetStatus(StatusParsing, string(StatusParsing))
	tree, err := parseFile(job.Filename, data, w.parserOpts)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail(string(StatusParsing), err.Error())
		return
	}

	// Hashing parsed text lets a re-exported copy of the same content match.
	hash := contentHash(tree.Text())
	job.update(func(s *JobSnapshot) { s.Title, s.ContentHash = tree.Title, hash })
	if owner, ok := w.hashes.claim(hash, job.DocID); !ok {
		log.Info("duplicate document, skipping", "existing_doc_id", owner)
		job.update(func(s *JobSnapshot) {
			s.DuplicateOf = owner
			s.Status, s.Phase = StatusDupSkipped, "dedup"
		})
		return
	}

	job.SetStatus(StatusChunking, string(StatusChunking))
	chunks := storeChunks(chunker.ChunkTree(tree, w.chunkCfg), job)
	job.update(func(s *JobSnapshot) { s.Progress.TotalChunks = len(chunks) })
	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		w.hashes.release(hash)
		job.Fail(string(StatusChunking), "no extractable content")
		return
	}
	log.Info("chunked document", "chunks", len(chunks))

	job.SetStatus(StatusStoring, string(StatusStoring))
	if err := w.storeBatches(ctx, job, chunks); err != nil {
		log.Error("store failed, rolling back", "error", err)
		if _, derr := w.store.DeleteDocument(context.WithoutCancel(ctx), job.DocID); derr != nil {
			log.Warn("rollback incomplete", "error", derr)
		}
		w.hashes.release(hash)
		job.Fail(string(StatusStoring), fmt.Sprintf("store: %s", err))
		return
	}

	if w.cache != nil {
		if err := w.cache.Invalidate(ctx); err != nil {
			log.Warn("cache invalidation failed", "error", err)
		}
	}
	log.Info("document stored", "chunks", len(chunks))
	job.SetStatus(StatusCompleted, "done")
}

func parseFile(filename string, data []byte, opts parser.Options) (*doctree.DocTree, error) {
	p, err := parser.ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	tree, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree, nil
}

// storeBatches writes chunks batchSize at a time, at most maxConcurrentStore
// calls in flight. The first failure cancels batches not yet started.
func (w *Worker) storeBatches(ctx context.Context, job *Job, chunks []chunkstore.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxConcurrentStore)
	for start := 0; start < len(chunks); start += w.batchSize {
		batch := chunks[start:min(start+w.batchSize, len(chunks))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := w.store.Add(gctx, batch); err != nil {
				return err
			}
			job.AddStored(len(batch))
			return nil
		})
	}
	return g.Wait()
}

// storeChunks labels each chunk's text with its location so the citation
// anchor survives into retrieval context.
func storeChunks(chunks []doctree.Chunk, job *Job) []chunkstore.Chunk {
	out := make([]chunkstore.Chunk, len(chunks))
	for i, c := range chunks {
		out[i] = chunkstore.Chunk{
			DocumentID: job.DocID,
			Filename:   job.Filename,
			Location:   c.Location(),
			Index:      c.Index,
			Text:       c.LabeledText(),
		}
	}
	return out
}
