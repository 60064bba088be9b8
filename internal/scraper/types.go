// Package scraper implements the concurrent scraping engine: batch
// scheduling, per-task execution against pooled browser sessions, global
// rate limiting and result aggregation.
package scraper

import (
	"context"
	"time"
)

// TaskStatus tracks a task through its state machine:
// pending -> in_progress -> {succeeded | pending (retry) | failed}.
type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusInProgress
	StatusSucceeded
	StatusFailed
)

func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is one URL's extraction attempt state. Owned by a single worker
// while in progress; discarded once recorded by the aggregator.
type Task struct {
	URL      string
	Attempts int
	Status   TaskStatus
	LastErr  error
}

// OutcomeKind classifies a single attempt.
type OutcomeKind int

const (
	// OutcomeSuccess carries the extractor's payload.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeRetry means another attempt at the same URL may succeed.
	OutcomeRetry
	// OutcomeFatal means retrying cannot help; the task fails now.
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the classified result of one attempt. TaintSession tells the
// worker to flag the session compromised when releasing it.
type Outcome struct {
	Kind         OutcomeKind
	Payload      interface{}
	Err          error
	TaintSession bool
}

// Extractor is the injected collaborator that turns a rendered page into a
// payload. The engine does not interpret the payload shape.
type Extractor interface {
	Extract(ctx context.Context, url, html string) (interface{}, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, url, html string) (interface{}, error)

func (f ExtractorFunc) Extract(ctx context.Context, url, html string) (interface{}, error) {
	return f(ctx, url, html)
}

// TaskResult is one successful URL with its extracted payload.
type TaskResult struct {
	URL     string      `json:"url"`
	Payload interface{} `json:"payload"`
}

// TaskFailure is one terminally failed URL with its last error.
type TaskFailure struct {
	URL      string `json:"url"`
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts"`
}

// RunMetrics summarizes one engine run.
type RunMetrics struct {
	Elapsed          time.Duration `json:"elapsed"`
	TasksCompleted   int           `json:"tasks_completed"`
	TasksFailed      int           `json:"tasks_failed"`
	Throughput       float64       `json:"throughput_per_second"`
	SuccessRate      float64       `json:"success_rate"`
	SessionsCreated  int64         `json:"sessions_created"`
	SessionsRecycled int64         `json:"sessions_recycled"`
}

// RunResult is the complete disposition of one run: every input URL lands
// in exactly one of the two lists.
type RunResult struct {
	Successes []TaskResult  `json:"successes"`
	Failures  []TaskFailure `json:"failures"`
	Metrics   RunMetrics    `json:"metrics"`
}

// TaintPolicy maps detection signals to the recycle decision. The default
// policy recycles on block pages and timeouts, matching the assumption that
// both leave the session in an unknown or compromised state.
type TaintPolicy struct {
	TaintOnBlock   bool `yaml:"taint_on_block" json:"taint_on_block"`
	TaintOnTimeout bool `yaml:"taint_on_timeout" json:"taint_on_timeout"`
}

// DefaultTaintPolicy recycles on both signals.
func DefaultTaintPolicy() TaintPolicy {
	return TaintPolicy{TaintOnBlock: true, TaintOnTimeout: true}
}
