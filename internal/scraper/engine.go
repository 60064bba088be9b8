package scraper

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kvolkov/leadharvest/internal/antidetect"
	"github.com/kvolkov/leadharvest/internal/browser"
	"github.com/kvolkov/leadharvest/internal/config"
	"github.com/kvolkov/leadharvest/internal/monitoring"
	"github.com/kvolkov/leadharvest/internal/proxy"
	"github.com/kvolkov/leadharvest/internal/store"
)

// Engine is the single entry point for a harvesting run. It owns nothing
// between runs; every Submit builds a fresh session pool, rate limiter and
// scheduler and tears them down before returning. Engines carry no global
// state and are safe to construct several of side by side.
type Engine struct {
	cfg        *config.Config
	factory    browser.Factory
	extractor  Extractor
	status     store.StatusStore
	logger     zerolog.Logger
	metrics    *monitoring.Metrics
	onTerminal func()
}

// Option customizes an Engine at construction time.
type Option func(*Engine)

// WithSessionFactory swaps the browser session factory. Tests use this to
// run without Chrome.
func WithSessionFactory(f browser.Factory) Option {
	return func(e *Engine) { e.factory = f }
}

// WithExtractor replaces the default contact extractor.
func WithExtractor(x Extractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithLogger sets the run logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics attaches a metrics collector. Without one, recording calls
// are no-ops.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithStatusStore attaches a processed-URL store; URLs it has already seen
// are skipped at submit time.
func WithStatusStore(s store.StatusStore) Option {
	return func(e *Engine) { e.status = s }
}

// WithTerminalHook registers a callback fired once per task reaching a
// terminal state, used for progress display.
func WithTerminalHook(fn func()) Option {
	return func(e *Engine) { e.onTerminal = fn }
}

// NewEngine validates the configuration and assembles an engine. A bad
// configuration is rejected here, before any browser process exists.
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		extractor: NewContactExtractor(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.factory == nil {
		bo := browser.DefaultOptions()
		bo.Headless = cfg.Browser.HeadlessEnabled()
		bo.NavigationTimeout = cfg.Browser.NavigationTimeout()
		bo.DisableImages = cfg.Browser.DisableImages
		bo.ProxyURL = cfg.Browser.ProxyURL
		if len(cfg.Browser.ProxyURLs) > 0 {
			rot, err := proxy.NewRotator(cfg.Browser.ProxyURLs)
			if err != nil {
				return nil, err
			}
			bo.Proxies = rot
		}
		e.factory = browser.ChromeFactory(bo)
	}
	return e, nil
}

// Submit runs every URL to a terminal state and returns the aggregated
// result. Per-task failures are part of the result, not an error; the
// error return is reserved for run-fatal conditions (invalid setup,
// session pool exhaustion) and cancellation. On cancellation the partial
// result gathered so far is returned alongside ctx's error.
func (e *Engine) Submit(ctx context.Context, urls []string) (*RunResult, error) {
	runID := uuid.NewString()
	logger := e.logger.With().Str("run_id", runID).Logger()

	urls = e.filterSeen(ctx, logger, urls)

	agg := NewAggregator()
	if len(urls) == 0 {
		logger.Info().Msg("nothing to do")
		return agg.Finalize(0, 0), nil
	}

	pool, err := browser.NewPool(ctx, browser.PoolConfig{
		Size:       e.cfg.Engine.SessionPoolSize,
		ReuseLimit: e.cfg.Engine.SessionReuseLimit,
		Mobile:     e.cfg.Browser.Mobile,
	}, e.factory, antidetect.NewGenerator(), logger, e.metrics)
	if err != nil {
		return nil, err
	}
	defer pool.Shutdown()

	limiter := NewRateLimiter(e.cfg.Engine.RateLimitInterval(), e.cfg.Engine.JitterFactor, e.metrics)
	exec := NewExecutor(limiter, e.extractor, e.taintPolicy(), e.cfg.Engine.TaskTimeout(), logger, e.metrics)
	sched := NewScheduler(
		e.cfg.Engine.BatchSize,
		e.cfg.Engine.MaxWorkers,
		e.cfg.Engine.MaxRetries,
		pool, exec, agg, logger, e.metrics,
	)
	if e.onTerminal != nil {
		sched.SetTerminalHook(e.onTerminal)
	}

	logger.Info().
		Int("urls", len(urls)).
		Int("workers", e.cfg.Engine.MaxWorkers).
		Int("pool", e.cfg.Engine.SessionPoolSize).
		Msg("run starting")

	runErr := sched.Run(ctx, urls)

	stats := pool.Stats()
	result := agg.Finalize(stats.Created, stats.Recycled)

	if runErr != nil {
		logger.Error().Err(runErr).Msg("run aborted")
		return result, runErr
	}

	e.markDone(ctx, logger, result)

	logger.Info().
		Int("succeeded", len(result.Successes)).
		Int("failed", len(result.Failures)).
		Dur("elapsed", result.Metrics.Elapsed).
		Msg("run complete")
	return result, nil
}

// filterSeen drops URLs the status store already recorded. Store errors
// degrade to "not seen" so a flaky Redis never silently drops work.
func (e *Engine) filterSeen(ctx context.Context, logger zerolog.Logger, urls []string) []string {
	if e.status == nil {
		return urls
	}
	kept := urls[:0:0]
	for _, u := range urls {
		seen, err := e.status.Seen(ctx, u)
		if err != nil {
			logger.Warn().Str("url", u).Err(err).Msg("status lookup failed, keeping url")
			kept = append(kept, u)
			continue
		}
		if seen {
			logger.Debug().Str("url", u).Msg("already harvested, skipping")
			continue
		}
		kept = append(kept, u)
	}
	if skipped := len(urls) - len(kept); skipped > 0 {
		logger.Info().Int("skipped", skipped).Msg("skipped previously harvested urls")
	}
	return kept
}

func (e *Engine) markDone(ctx context.Context, logger zerolog.Logger, result *RunResult) {
	if e.status == nil {
		return
	}
	for _, s := range result.Successes {
		if err := e.status.MarkDone(ctx, s.URL); err != nil {
			logger.Warn().Str("url", s.URL).Err(err).Msg("failed to record url as done")
		}
	}
}

func (e *Engine) taintPolicy() TaintPolicy {
	p := DefaultTaintPolicy()
	if v := e.cfg.Engine.TaintOnBlock; v != nil {
		p.TaintOnBlock = *v
	}
	if v := e.cfg.Engine.TaintOnTimeout; v != nil {
		p.TaintOnTimeout = *v
	}
	return p
}
