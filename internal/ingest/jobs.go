package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusChunking   JobStatus = "chunking"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether no further transitions will happen.
func (s JobStatus) Done() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusDupSkipped:
		return true
	}
	return false
}

// Progress counts chunks through the storing phase.
type Progress struct {
	TotalChunks  int      `json:"total_chunks"`
	ChunksStored int      `json:"chunks_stored"`
	Errors       []string `json:"errors"`
}

// JobSnapshot is the JSON view of a job at one point in time.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	DocID       string    `json:"document_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	Progress    Progress  `json:"progress"`
	ContentHash string    `json:"content_hash,omitempty"`
	DuplicateOf string    `json:"duplicate_of,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job is one file moving through parse, dedup, chunk and store. The
// identifying fields are fixed at creation; everything else changes under
// the job's lock and is read through Snapshot.
type Job struct {
	ID       string
	DocID    string
	Filename string

	mu    sync.Mutex
	state JobSnapshot
	data  []byte
}

// NewJob returns a queued job holding the raw file bytes. The job id and the
// id the document will be stored under are both fresh UUIDs.
func NewJob(filename string, data []byte) *Job {
	now := time.Now()
	j := &Job{ID: uuid.NewString(), DocID: uuid.NewString(), Filename: filename, data: data}
	j.state = JobSnapshot{
		ID:        j.ID,
		DocID:     j.DocID,
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     string(StatusQueued),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return j
}

func (j *Job) update(fn func(s *JobSnapshot)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.state)
	j.state.UpdatedAt = time.Now()
}

// SetStatus moves the job to status. phase names the step more precisely,
// e.g. "dedup" or "queue_full".
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.update(func(s *JobSnapshot) { s.Status, s.Phase = status, phase })
}

// Fail records msg and marks the job failed in phase.
func (j *Job) Fail(phase, msg string) {
	j.update(func(s *JobSnapshot) {
		s.Progress.Errors = append(s.Progress.Errors, msg)
		s.Status, s.Phase = StatusFailed, phase
	})
}

// AddStored counts n more chunks written to the store.
func (j *Job) AddStored(n int) {
	j.update(func(s *JobSnapshot) { s.Progress.ChunksStored += n })
}

// Snapshot copies the current state. Progress.Errors is never nil.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	snap := j.state
	snap.Progress.Errors = append(make([]string, 0, len(j.state.Progress.Errors)), j.state.Progress.Errors...)
	return snap
}

// takeData hands the raw bytes to the caller and drops the job's reference.
func (j *Job) takeData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	data := j.data
	j.data = nil
	return data
}

// contentHash is the hex SHA-256 of the document's parsed text.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// jobTable indexes jobs by id and evicts ones idle longer than ttl.
type jobTable struct {
	ttl time.Duration

	mu   sync.Mutex
	jobs map[string]*Job
}

func newJobTable(ttl time.Duration) *jobTable {
	return &jobTable{ttl: ttl, jobs: make(map[string]*Job)}
}

func (t *jobTable) add(job *Job) {
	t.mu.Lock()
	t.jobs[job.ID] = job
	t.mu.Unlock()
}

func (t *jobTable) get(id string) *Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobs[id]
}

// sweep drops finished jobs whose last update is older than ttl and returns
// how many were dropped. Jobs still in flight are kept regardless of age.
func (t *jobTable) sweep(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	var stale []string
	for id, job := range t.jobs {
		snap := job.Snapshot()
		if snap.Status.Done() && now.Sub(snap.UpdatedAt) > t.ttl {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(t.jobs, id)
	}
	return len(stale)
}
