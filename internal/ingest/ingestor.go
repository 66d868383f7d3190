// Package ingest turns uploaded files into stored chunks on a bounded worker
// pool: parse, dedup, chunk, store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docthemes/internal/chunker"
	"github.com/dgallion1/docthemes/internal/chunkstore"
	"github.com/dgallion1/docthemes/internal/parser"
)

// Invalidator drops cached query results after the corpus changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Options struct {
	WorkerCount        int
	MaxQueueSize       int
	MaxConcurrentStore int
	// StoreBatchSize is the number of chunks written per store call.
	StoreBatchSize int
	JobTTL         time.Duration
	Chunk          chunker.Config
	Parser         parser.Options
	// Cache is optional.
	Cache Invalidator
}

const (
	DefaultWorkerCount        = 2
	DefaultMaxQueueSize       = 100
	DefaultMaxConcurrentStore = 4
	DefaultStoreBatchSize     = 64
	DefaultJobTTL             = time.Hour
)

func (o Options) withDefaults() Options {
	if o.WorkerCount <= 0 {
		o.WorkerCount = DefaultWorkerCount
	}
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = DefaultMaxQueueSize
	}
	if o.MaxConcurrentStore <= 0 {
		o.MaxConcurrentStore = DefaultMaxConcurrentStore
	}
	if o.StoreBatchSize <= 0 {
		o.StoreBatchSize = DefaultStoreBatchSize
	}
	if o.JobTTL <= 0 {
		o.JobTTL = DefaultJobTTL
	}
	if o.Chunk.ChunkSize <= 0 {
		o.Chunk = chunker.DefaultConfig()
	}
	return o
}

// Ingestor manages the document ingestion queue.
type Ingestor struct {
	jobs   *jobTable
	queue  chan *Job
	store  chunkstore.Store
	hashes *hashIndex
	log    *slog.Logger
	opts   Options

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the ingestor. Call Start before submitting jobs.
func New(store chunkstore.Store, opts Options, log *slog.Logger) *Ingestor {
	opts = opts.withDefaults()
	return &Ingestor{
		jobs:   newJobTable(opts.JobTTL),
		queue:  make(chan *Job, opts.MaxQueueSize),
		store:  store,
		hashes: newHashIndex(),
		log:    log,
		opts:   opts,
	}
}

// Start launches worker goroutines.
func (in *Ingestor) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	in.cancel = cancel

	for range in.opts.WorkerCount {
		in.wg.Add(1)
		go func() {
			defer in.wg.Done()
			w := in.newWorker()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-in.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	in.wg.Add(1)
	go func() {
		defer in.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case now := <-ticker.C:
				if n := in.jobs.sweep(now); n > 0 {
					in.log.Debug("evicted finished jobs", "count", n)
				}
			}
		}
	}()
}

// Stop cancels in-flight work and waits for the workers to exit.
func (in *Ingestor) Stop() {
	if in.cancel != nil {
		in.cancel()
	}
	close(in.queue)
	in.wg.Wait()
}

// Submit queues a job for the workers. A full queue fails the job at once;
// it stays registered so its status can still be polled.
func (in *Ingestor) Submit(job *Job) error {
	in.jobs.add(job)
	select {
	case in.queue <- job:
		return nil
	default:
		err := fmt.Errorf("job queue is full (%d)", in.opts.MaxQueueSize)
		job.Fail("queue_full", err.Error())
		return err
	}
}

// IngestNow processes a job on the calling goroutine and returns its final
// state. The job is registered so Job can report it afterwards.
func (in *Ingestor) IngestNow(ctx context.Context, job *Job) (JobSnapshot, error) {
	in.jobs.add(job)
	in.newWorker().Process(ctx, job)
	snap := job.Snapshot()
	if snap.Status == StatusFailed {
		return snap, fmt.Errorf("ingest %s: %s", job.Filename, lastError(snap.Progress.Errors))
	}
	return snap, nil
}

// Job returns a job by ID, or nil.
func (in *Ingestor) Job(id string) *Job {
	return in.jobs.get(id)
}

// QueueDepth returns current queue depth.
func (in *Ingestor) QueueDepth() int {
	return len(in.queue)
}

// Forget drops a deleted document from the dedup index so the same content
// can be uploaded again.
func (in *Ingestor) Forget(documentID string) {
	in.hashes.releaseDoc(documentID)
}

func (in *Ingestor) newWorker() *Worker {
	return &Worker{
		store:              in.store,
		hashes:             in.hashes,
		cache:              in.opts.Cache,
		log:                in.log,
		chunkCfg:           in.opts.Chunk,
		parserOpts:         in.opts.Parser,
		batchSize:          in.opts.StoreBatchSize,
		maxConcurrentStore: in.opts.MaxConcurrentStore,
	}
}

func lastError(errs []string) string {
	if len(errs) == 0 {
		return "failed"
	}
	return errs[len(errs)-1]
}

// hashIndex maps content hashes to the document that claimed them.
type hashIndex struct {
	mu     sync.Mutex
	byHash map[string]string
}

func newHashIndex() *hashIndex {
	return &hashIndex{byHash: make(map[string]string)}
}

// claim records docID as the owner of hash. When another document already
// owns it, claim returns that document's id and false.
func (h *hashIndex) claim(hash, docID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if owner, ok := h.byHash[hash]; ok {
		return owner, false
	}
	h.byHash[hash] = docID
	return docID, true
}

func (h *hashIndex) release(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.byHash, hash)
}

func (h *hashIndex) releaseDoc(docID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for hash, owner := range h.byHash {
		if owner == docID {
			delete(h.byHash, hash)
		}
	}
}
