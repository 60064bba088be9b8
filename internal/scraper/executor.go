package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/kvolkov/leadharvest/internal/browser"
	cerrors "github.com/kvolkov/leadharvest/internal/errors"
	"github.com/kvolkov/leadharvest/internal/monitoring"
)

// Executor runs exactly one extraction attempt for one task on a leased
// session and classifies the result.
type Executor struct {
	limiter   *RateLimiter
	extractor Extractor
	taint     TaintPolicy
	timeout   time.Duration
	logger    zerolog.Logger
	metrics   *monitoring.Metrics
}

// NewExecutor wires the attempt pipeline. timeout bounds the whole attempt
// including the rate-limit wait.
func NewExecutor(limiter *RateLimiter, extractor Extractor, taint TaintPolicy, timeout time.Duration, logger zerolog.Logger, metrics *monitoring.Metrics) *Executor {
	return &Executor{
		limiter:   limiter,
		extractor: extractor,
		taint:     taint,
		timeout:   timeout,
		logger:    logger.With().Str("component", "executor").Logger(),
		metrics:   metrics,
	}
}

// Run performs the attempt: global rate gate, navigation, popup dismissal,
// behavioral simulation, extraction, classification. Per-task errors are
// contained in the returned Outcome; Run itself never fails the run.
func (e *Executor) Run(ctx context.Context, task *Task, sess *browser.Session) Outcome {
	taskCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	log := e.logger.With().Str("url", task.URL).Str("session_id", sess.ID).Int("attempt", task.Attempts).Logger()
	page := sess.Page()

	if err := e.limiter.Wait(taskCtx); err != nil {
		return e.classifyCtxErr(ctx, taskCtx, err)
	}

	if err := page.Navigate(taskCtx, task.URL); err != nil {
		cls := cerrors.ClassifyNavigation(taskCtx, err)
		log.Debug().Err(err).Str("kind", cls.Kind.String()).Msg("navigation failed")
		return e.outcomeForError(cls)
	}

	// Interstitials first, then humanized interaction, then a second pass:
	// some consent dialogs only mount after first scroll.
	if err := page.DismissPopups(taskCtx); err != nil {
		log.Debug().Err(err).Msg("popup dismissal failed")
	}
	if err := page.SimulateReading(taskCtx); err != nil {
		if out, stop := e.checkDeadline(ctx, taskCtx, err); stop {
			return out
		}
		log.Debug().Err(err).Msg("behavior simulation failed")
	}
	_ = page.DismissPopups(taskCtx)

	html, err := page.HTML(taskCtx)
	if err != nil {
		if out, stop := e.checkDeadline(ctx, taskCtx, err); stop {
			return out
		}
		return e.outcomeForError(cerrors.New(cerrors.KindTransientNetwork, "page_html", err))
	}

	if DetectBlock(html) {
		log.Warn().Msg("block page detected")
		return e.outcomeForError(cerrors.Newf(cerrors.KindDetectionBlocked, "detect", "challenge or login wall served"))
	}

	payload, err := e.extractor.Extract(taskCtx, task.URL, html)
	if err != nil {
		if out, stop := e.checkDeadline(ctx, taskCtx, err); stop {
			return out
		}
		// The page rendered fine; the failure is interpretation. Retrying
		// the same page cannot change the answer.
		return e.outcomeForError(cerrors.New(cerrors.KindCollaborator, "extract", err))
	}

	return Outcome{Kind: OutcomeSuccess, Payload: payload}
}

// checkDeadline distinguishes task-budget expiry from other failures while
// an attempt is in flight.
func (e *Executor) checkDeadline(parent, taskCtx context.Context, err error) (Outcome, bool) {
	if errors.Is(taskCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return e.classifyCtxErr(parent, taskCtx, err), true
	}
	if parent.Err() != nil {
		return e.classifyCtxErr(parent, taskCtx, err), true
	}
	return Outcome{}, false
}

// classifyCtxErr maps a context failure: run cancellation aborts without a
// terminal outcome downstream; task-budget expiry is a retryable timeout.
func (e *Executor) classifyCtxErr(parent, taskCtx context.Context, err error) Outcome {
	if parent.Err() != nil && !errors.Is(parent.Err(), context.DeadlineExceeded) {
		// Run-level cancellation; scheduler decides, not the task.
		return Outcome{Kind: OutcomeRetry, Err: parent.Err()}
	}
	timeoutErr := cerrors.New(cerrors.KindTaskTimeout, "task", err)
	return Outcome{
		Kind:         OutcomeRetry,
		Err:          timeoutErr,
		TaintSession: e.taint.TaintOnTimeout,
	}
}

// outcomeForError derives the attempt outcome and taint flag from the
// error kind, per the configured taint policy.
func (e *Executor) outcomeForError(err *cerrors.Error) Outcome {
	switch err.Kind {
	case cerrors.KindTransientNetwork:
		return Outcome{Kind: OutcomeRetry, Err: err}
	case cerrors.KindDetectionBlocked:
		return Outcome{Kind: OutcomeRetry, Err: err, TaintSession: e.taint.TaintOnBlock}
	case cerrors.KindTaskTimeout:
		return Outcome{Kind: OutcomeRetry, Err: err, TaintSession: e.taint.TaintOnTimeout}
	default:
		return Outcome{Kind: OutcomeFatal, Err: err}
	}
}
