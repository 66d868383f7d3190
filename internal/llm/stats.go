package llm

import (
	"slices"
	"sync"
	"time"
)

// StageOther labels calls made without a Stage.
const StageOther = "other"

// StatsSnapshot aggregates the latency samples inside the window. Errors
// counts the calls that returned an error; they are included in the latency
// figures too.
type StatsSnapshot struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	MinMs  int64   `json:"min_ms"`
	MaxMs  int64   `json:"max_ms"`
	AvgMs  float64 `json:"avg_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P95Ms  float64 `json:"p95_ms"`
	P99Ms  float64 `json:"p99_ms"`
}

// StatsReport is the overall aggregate plus one entry per pipeline stage.
type StatsReport struct {
	Overall StatsSnapshot            `json:"overall"`
	Stages  map[string]StatsSnapshot `json:"stages"`
}

type call struct {
	at     time.Time
	ms     int64
	failed bool
}

// LLMStats keeps a rolling window of model call latencies per pipeline stage.
// A nil *LLMStats ignores observations.
type LLMStats struct {
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	stages map[string][]call
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window, now: time.Now, stages: make(map[string][]call)}
}

// Observe records one call that began at start and ended now.
func (s *LLMStats) Observe(stage string, start time.Time, err error) {
	if s == nil {
		return
	}
	s.record(stage, s.now().Sub(start).Milliseconds(), err != nil)
}

// Record adds a successful call of the given duration.
func (s *LLMStats) Record(stage string, durationMs int64) {
	s.record(stage, durationMs, false)
}

func (s *LLMStats) record(stage string, ms int64, failed bool) {
	if stage == "" {
		stage = StageOther
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages[stage] = append(s.expire(stage, now), call{at: now, ms: max(ms, 0), failed: failed})
}

// Report aggregates the window overall and per stage. Stages whose samples
// have all expired are omitted.
func (s *LLMStats) Report() StatsReport {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := StatsReport{Stages: make(map[string]StatsSnapshot, len(s.stages))}
	var all []call
	for stage := range s.stages {
		calls := s.expire(stage, now)
		if len(calls) == 0 {
			delete(s.stages, stage)
			continue
		}
		s.stages[stage] = calls
		rep.Stages[stage] = summarize(calls)
		all = append(all, calls...)
	}
	rep.Overall = summarize(all)
	return rep
}

// expire returns the stage's calls still inside the window. Calls are kept in
// arrival order, so everything before the first fresh one is stale.
func (s *LLMStats) expire(stage string, now time.Time) []call {
	calls := s.stages[stage]
	cutoff := now.Add(-s.window)
	i := 0
	for i < len(calls) && calls[i].at.Before(cutoff) {
		i++
	}
	return calls[i:]
}

func summarize(calls []call) StatsSnapshot {
	if len(calls) == 0 {
		return StatsSnapshot{}
	}
	ms := make([]int64, len(calls))
	snap := StatsSnapshot{Count: len(calls)}
	var sum int64
	for i, c := range calls {
		ms[i] = c.ms
		sum += c.ms
		if c.failed {
			snap.Errors++
		}
	}
	slices.Sort(ms)
	snap.MinMs, snap.MaxMs = ms[0], ms[len(ms)-1]
	snap.AvgMs = float64(sum) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	snap.P99Ms = percentile(ms, 99)
	return snap
}

// percentile interpolates linearly between the nearest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := float64(len(sorted)-1) * min(max(pct, 0), 100) / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
