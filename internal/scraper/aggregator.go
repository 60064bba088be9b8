package scraper

import (
	"sync"
	"time"
)

// Aggregator accumulates terminal task outcomes for one run. Safe for
// concurrent use by all workers.
type Aggregator struct {
	mu        sync.Mutex
	start     time.Time
	successes []TaskResult
	failures  []TaskFailure
}

// NewAggregator starts the run clock.
func NewAggregator() *Aggregator {
	return &Aggregator{start: time.Now()}
}

// RecordSuccess stores a succeeded task's payload.
func (a *Aggregator) RecordSuccess(url string, payload interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.successes = append(a.successes, TaskResult{URL: url, Payload: payload})
}

// RecordFailure stores a terminally failed task.
func (a *Aggregator) RecordFailure(url string, reason error, attempts int) {
	msg := "unknown failure"
	if reason != nil {
		msg = reason.Error()
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures = append(a.failures, TaskFailure{URL: url, Reason: msg, Attempts: attempts})
}

// Counts returns the terminal tallies so far.
func (a *Aggregator) Counts() (succeeded, failed int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.successes), len(a.failures)
}

// Finalize derives run metrics and assembles the RunResult. Session
// counters come from the pool at the call site.
func (a *Aggregator) Finalize(sessionsCreated, sessionsRecycled int64) *RunResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	elapsed := time.Since(a.start)
	completed := len(a.successes)
	failed := len(a.failures)
	total := completed + failed

	metrics := RunMetrics{
		Elapsed:          elapsed,
		TasksCompleted:   completed,
		TasksFailed:      failed,
		SessionsCreated:  sessionsCreated,
		SessionsRecycled: sessionsRecycled,
	}
	if elapsed > 0 {
		metrics.Throughput = float64(completed) / elapsed.Seconds()
	}
	if total > 0 {
		metrics.SuccessRate = float64(completed) / float64(total)
	}

	// Copies, never the internal slices, and never nil: a result with no
	// successes serializes as an empty list, not null.
	successes := make([]TaskResult, len(a.successes))
	copy(successes, a.successes)
	failures := make([]TaskFailure, len(a.failures))
	copy(failures, a.failures)

	return &RunResult{
		Successes: successes,
		Failures:  failures,
		Metrics:   metrics,
	}
}
