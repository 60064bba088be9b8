package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kvolkov/leadharvest/internal/browser"
	"github.com/kvolkov/leadharvest/internal/monitoring"
)

// Scheduler drives a run: it partitions the input into fixed-size batches
// and processes them strictly in sequence, each with a bounded set of
// workers pulling from that batch's queue only. Bounding workers to one
// batch keeps memory and session-pool pressure predictable.
type Scheduler struct {
	batchSize  int
	maxWorkers int
	maxRetries int

	pool    *browser.Pool
	exec    *Executor
	agg     *Aggregator
	logger  zerolog.Logger
	metrics *monitoring.Metrics

	// onTerminal, when set, is called once per task reaching a terminal
	// state. Used for CLI progress reporting.
	onTerminal func()
}

// NewScheduler assembles the batch driver.
func NewScheduler(batchSize, maxWorkers, maxRetries int, pool *browser.Pool, exec *Executor, agg *Aggregator, logger zerolog.Logger, metrics *monitoring.Metrics) *Scheduler {
	return &Scheduler{
		batchSize:  batchSize,
		maxWorkers: maxWorkers,
		maxRetries: maxRetries,
		pool:       pool,
		exec:       exec,
		agg:        agg,
		logger:     logger.With().Str("component", "scheduler").Logger(),
		metrics:    metrics,
	}
}

// SetTerminalHook registers the per-terminal-task callback. Must be called
// before Run.
func (s *Scheduler) SetTerminalHook(fn func()) { s.onTerminal = fn }

// Run processes every URL to a terminal state. Per-task failures never
// abort the run; only run-fatal errors (session creation exhaustion) or
// cancellation do. Batch N+1 does not start until batch N fully drains.
func (s *Scheduler) Run(ctx context.Context, urls []string) error {
	batches := partition(urls, s.batchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.logger.Info().Int("batch", i+1).Int("of", len(batches)).Int("tasks", len(batch)).Msg("starting batch")
		if err := s.runBatch(ctx, batch); err != nil {
			return err
		}
		s.metrics.BatchCompleted()
	}
	return nil
}

func (s *Scheduler) runBatch(ctx context.Context, urls []string) error {
	b := newBatchQueue(urls, s.maxRetries)

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var failMu sync.Mutex
	var runErr error
	fail := func(err error) {
		failMu.Lock()
		if runErr == nil {
			runErr = err
			cancel()
		}
		failMu.Unlock()
	}

	workers := s.maxWorkers
	if workers > len(urls) {
		workers = len(urls)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(batchCtx, b, fail)
		}()
	}
	wg.Wait()
	b.abort()

	failMu.Lock()
	defer failMu.Unlock()
	if runErr != nil {
		return runErr
	}
	return ctx.Err()
}

// worker is a stateless loop: pull task, lease session, run attempt,
// release session, route the outcome. It holds at most one shared resource
// at a time and never sleeps while holding the pool's or queue's lock.
func (s *Scheduler) worker(ctx context.Context, b *batchQueue, fail func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-b.tasks:
			if !ok {
				return
			}
			task.Status = StatusInProgress
			task.Attempts++

			sess, err := s.pool.Acquire(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				fail(err)
				return
			}

			start := time.Now()
			outcome := s.exec.Run(ctx, task, sess)

			if relErr := s.pool.Release(ctx, sess, outcome.TaintSession); relErr != nil {
				// Recycle could not produce a replacement: the pool can no
				// longer honor its size invariant, abort the run.
				fail(relErr)
				return
			}

			if ctx.Err() != nil {
				// Run cancelled while the attempt was in flight; its
				// outcome is void, not terminal.
				return
			}

			s.settle(task, outcome, b, time.Since(start))
		}
	}
}

// settle routes one attempt outcome through the task state machine.
func (s *Scheduler) settle(task *Task, outcome Outcome, b *batchQueue, took time.Duration) {
	switch outcome.Kind {
	case OutcomeSuccess:
		task.Status = StatusSucceeded
		s.agg.RecordSuccess(task.URL, outcome.Payload)
		s.metrics.TaskFinished("succeeded", took)
		s.terminal()
		b.terminal()

	case OutcomeRetry:
		task.LastErr = outcome.Err
		if task.Attempts > s.maxRetries {
			task.Status = StatusFailed
			s.agg.RecordFailure(task.URL, task.LastErr, task.Attempts)
			s.metrics.TaskFinished("failed", took)
			s.logger.Warn().Str("url", task.URL).Int("attempts", task.Attempts).Err(outcome.Err).Msg("task failed, retries exhausted")
			s.terminal()
			b.terminal()
			return
		}
		task.Status = StatusPending
		s.metrics.TaskRetried()
		s.logger.Debug().Str("url", task.URL).Int("attempt", task.Attempts).Err(outcome.Err).Msg("retrying task")
		b.requeue(task)

	case OutcomeFatal:
		task.Status = StatusFailed
		task.LastErr = outcome.Err
		s.agg.RecordFailure(task.URL, outcome.Err, task.Attempts)
		s.metrics.TaskFinished("failed", took)
		s.logger.Warn().Str("url", task.URL).Err(outcome.Err).Msg("task failed permanently")
		s.terminal()
		b.terminal()
	}
}

func (s *Scheduler) terminal() {
	if s.onTerminal != nil {
		s.onTerminal()
	}
}

// batchQueue is one batch's task queue plus the outstanding-task counter
// that decides when the queue closes. Retries re-enter the same queue; the
// buffer is sized for the worst case so sends never block.
type batchQueue struct {
	tasks chan *Task

	mu          sync.Mutex
	outstanding int
	closed      bool
}

func newBatchQueue(urls []string, maxRetries int) *batchQueue {
	b := &batchQueue{
		tasks:       make(chan *Task, len(urls)*(maxRetries+1)),
		outstanding: len(urls),
	}
	for _, u := range urls {
		b.tasks <- &Task{URL: u, Status: StatusPending}
	}
	return b
}

// terminal marks one task done; the last one closes the queue, releasing
// any workers blocked on it.
func (b *batchQueue) terminal() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outstanding--
	if b.outstanding == 0 && !b.closed {
		b.closed = true
		close(b.tasks)
	}
}

// requeue puts a retryable task back unless the batch already shut down.
func (b *batchQueue) requeue(task *Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.tasks <- task
}

// abort closes the queue regardless of outstanding tasks. Used on
// cancellation so no goroutine is left waiting on an undrained batch.
func (b *batchQueue) abort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.closed {
		b.closed = true
		close(b.tasks)
	}
}

func partition(urls []string, size int) [][]string {
	if size <= 0 {
		size = len(urls)
	}
	var out [][]string
	for start := 0; start < len(urls); start += size {
		end := start + size
		if end > len(urls) {
			end = len(urls)
		}
		out = append(out, urls[start:end])
	}
	return out
}
