package browser

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kvolkov/leadharvest/internal/antidetect"
	cerrors "github.com/kvolkov/leadharvest/internal/errors"
	"github.com/kvolkov/leadharvest/internal/monitoring"
)

// PoolConfig sizes the session pool and its recycle policy.
type PoolConfig struct {
	// Size is the fixed number of live sessions. The pool never exceeds it.
	Size int

	// ReuseLimit is the number of completed tasks after which a session is
	// recycled regardless of taint.
	ReuseLimit int

	// Mobile selects mobile fingerprints for every session.
	Mobile bool

	// CreateAttempts bounds session-launch retries (initial and recycle).
	CreateAttempts int

	// CreateBackoff is the initial retry delay, doubled per attempt.
	CreateBackoff time.Duration
}

func (c *PoolConfig) applyDefaults() {
	if c.CreateAttempts <= 0 {
		c.CreateAttempts = 3
	}
	if c.CreateBackoff <= 0 {
		c.CreateBackoff = 500 * time.Millisecond
	}
}

// PoolStats is a point-in-time snapshot of pool counters.
type PoolStats struct {
	Created  int64
	Recycled int64
	Leased   int
}

// Pool owns a fixed set of browser sessions and hands them out under
// mutual exclusion. Waiters are served in FIFO order (channel receive
// order), which bounds worst-case wait under contention.
type Pool struct {
	cfg     PoolConfig
	factory Factory
	gen     *antidetect.Generator
	logger  zerolog.Logger
	metrics *monitoring.Metrics

	// idle holds sessions not currently leased. Capacity == cfg.Size, so a
	// release can never block.
	idle chan *Session

	mu       sync.Mutex
	closed   bool
	leased   int
	created  int64
	recycled int64
}

// NewPool eagerly creates cfg.Size sessions. A session that cannot be
// launched after bounded retries fails pool construction; the run aborts
// rather than silently operating below the configured capacity.
func NewPool(ctx context.Context, cfg PoolConfig, factory Factory, gen *antidetect.Generator, logger zerolog.Logger, metrics *monitoring.Metrics) (*Pool, error) {
	if cfg.Size < 1 {
		return nil, cerrors.Newf(cerrors.KindFatalConfiguration, "pool", "session pool size must be >= 1, got %d", cfg.Size)
	}
	if cfg.ReuseLimit < 1 {
		return nil, cerrors.Newf(cerrors.KindFatalConfiguration, "pool", "session reuse limit must be >= 1, got %d", cfg.ReuseLimit)
	}
	cfg.applyDefaults()

	p := &Pool{
		cfg:     cfg,
		factory: factory,
		gen:     gen,
		logger:  logger.With().Str("component", "session_pool").Logger(),
		metrics: metrics,
		idle:    make(chan *Session, cfg.Size),
	}

	for i := 0; i < cfg.Size; i++ {
		sess, err := p.createSession(ctx)
		if err != nil {
			p.Shutdown()
			return nil, err
		}
		p.idle <- sess
	}

	p.logger.Info().Int("size", cfg.Size).Int("reuse_limit", cfg.ReuseLimit).Msg("session pool ready")
	return p, nil
}

// Acquire blocks until a session is free, then leases it to the caller.
// The caller owns the session exclusively until Release.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, cerrors.Newf(cerrors.KindSessionCreation, "pool", "acquire on closed pool")
	}
	p.mu.Unlock()

	select {
	case sess, ok := <-p.idle:
		if !ok || sess == nil {
			return nil, cerrors.Newf(cerrors.KindSessionCreation, "pool", "pool closed while waiting")
		}
		p.mu.Lock()
		p.leased++
		p.mu.Unlock()
		p.metrics.SessionLeased()
		return sess, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a leased session, counting the completed task against
// its reuse budget. A tainted or exhausted session is recycled before it
// goes back to the idle set; recycling is synchronous so the pool total
// never exceeds Size. A recycle that cannot create a replacement after
// bounded retries returns a run-fatal error.
func (p *Pool) Release(ctx context.Context, sess *Session, tainted bool) error {
	p.mu.Lock()
	p.leased--
	closed := p.closed
	p.mu.Unlock()
	p.metrics.SessionReleased()

	if closed {
		_ = sess.page.Close()
		return nil
	}

	sess.ops++
	if tainted || sess.ops >= p.cfg.ReuseLimit {
		fresh, err := p.recycle(ctx, sess, tainted)
		if err != nil {
			return err
		}
		sess = fresh
	}

	// Re-check under the lock: Shutdown may have run while recycling, and a
	// send on the closed idle channel would panic.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = sess.page.Close()
		return nil
	}
	select {
	case p.idle <- sess:
	default:
		// Cannot happen while lease accounting is balanced; close rather
		// than leak a browser if it ever does.
		p.logger.Error().Str("session_id", sess.ID).Msg("idle queue full on release, destroying session")
		_ = sess.page.Close()
	}
	return nil
}

// recycle destroys the session and builds its replacement with a fresh
// identity. Profile replacement is atomic from the caller's perspective: a
// session is either the old one or a fully constructed new one.
func (p *Pool) recycle(ctx context.Context, old *Session, tainted bool) (*Session, error) {
	_ = old.page.Close()

	p.logger.Debug().
		Str("session_id", old.ID).
		Int("operations", old.ops).
		Bool("tainted", tainted).
		Msg("recycling session")

	fresh, err := p.createSession(ctx)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.recycled++
	p.mu.Unlock()
	p.metrics.SessionRecycled()
	return fresh, nil
}

// createSession launches a browser with a fresh fingerprint, retrying with
// doubling backoff. Exhausting the retries is a configuration-grade
// failure: the pool cannot honor its size invariant.
func (p *Pool) createSession(ctx context.Context) (*Session, error) {
	fp, bp := p.gen.Generate(p.cfg.Mobile)

	var lastErr error
	backoff := p.cfg.CreateBackoff
	for attempt := 1; attempt <= p.cfg.CreateAttempts; attempt++ {
		page, err := p.factory(ctx, fp, bp)
		if err == nil {
			p.mu.Lock()
			p.created++
			p.mu.Unlock()
			p.metrics.SessionCreated()
			return &Session{
				ID:          uuid.NewString(),
				Fingerprint: fp,
				Behavior:    bp,
				CreatedAt:   time.Now(),
				page:        page,
			}, nil
		}
		lastErr = err
		p.logger.Warn().Err(err).Int("attempt", attempt).Msg("session launch failed")

		if attempt == p.cfg.CreateAttempts {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}

	return nil, cerrors.New(cerrors.KindFatalConfiguration, "pool",
		cerrors.Newf(cerrors.KindSessionCreation, "pool", "session launch failed after %d attempts: %v", p.cfg.CreateAttempts, lastErr))
}

// Stats returns the pool's monotonic counters and current lease count.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{Created: p.created, Recycled: p.recycled, Leased: p.leased}
}

// Shutdown destroys all idle sessions and rejects future acquires.
// Idempotent. Leased sessions are destroyed as they are released.
func (p *Pool) Shutdown() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.idle)
	for sess := range p.idle {
		if sess != nil {
			_ = sess.page.Close()
		}
	}

	p.logger.Info().Msg("session pool shut down")
	return nil
}
