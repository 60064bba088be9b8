package scraper

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/kvolkov/leadharvest/internal/monitoring"
)

// RateLimiter is the single gate every navigation passes through. It
// guarantees a minimum spacing of interval*(1-jitter) between any two
// accepted requests across the whole pool, with randomized jitter on top so
// the cadence never looks mechanical.
type RateLimiter struct {
	interval time.Duration
	jitter   float64
	metrics  *monitoring.Metrics

	// floor is a token bucket at the minimum spacing; it is the hard lower
	// bound even if the jitter computation is ever changed.
	floor *rate.Limiter

	mu   sync.Mutex
	last time.Time
	rng  *rand.Rand
}

// NewRateLimiter builds the gate. interval <= 0 disables pacing entirely;
// jitter must be in [0,1).
func NewRateLimiter(interval time.Duration, jitter float64, metrics *monitoring.Metrics) *RateLimiter {
	rl := &RateLimiter{
		interval: interval,
		jitter:   jitter,
		metrics:  metrics,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if interval > 0 {
		minSpacing := time.Duration(float64(interval) * (1 - jitter))
		if minSpacing < time.Millisecond {
			minSpacing = time.Millisecond
		}
		rl.floor = rate.NewLimiter(rate.Every(minSpacing), 1)
	}
	return rl
}

// Wait blocks the caller until its turn. The target computation and the
// timestamp update happen in one critical section so two callers can never
// both observe a stale timestamp and pass for free; the sleep itself
// happens outside the lock.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.interval <= 0 {
		return ctx.Err()
	}
	start := time.Now()

	if err := rl.floor.Wait(ctx); err != nil {
		return err
	}

	rl.mu.Lock()
	spacing := time.Duration(float64(rl.interval) * (1 + (rl.rng.Float64()*2-1)*rl.jitter))
	target := rl.last.Add(spacing)
	now := time.Now()
	if target.Before(now) {
		target = now
	}
	rl.last = target
	rl.mu.Unlock()

	if wait := time.Until(target); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rl.metrics.RateLimitWaited(time.Since(start))
	return nil
}
