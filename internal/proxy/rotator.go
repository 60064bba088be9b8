// Package proxy rotates upstream proxies across browser sessions so no
// single exit address accumulates a suspicious request volume.
package proxy

import (
	"net/url"
	"sync"
	"time"

	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

// endpoint is one upstream proxy with its failure bookkeeping.
type endpoint struct {
	addr     string
	failures int
	badUntil time.Time
}

// Rotator hands out proxies round-robin, skipping endpoints that are in a
// failure cooldown. Safe for concurrent use.
type Rotator struct {
	mu        sync.Mutex
	endpoints []*endpoint
	next      int

	cooldown     time.Duration
	failureLimit int
}

// NewRotator validates and loads the proxy list. Only http, https and
// socks5 schemes are accepted.
func NewRotator(addrs []string) (*Rotator, error) {
	if len(addrs) == 0 {
		return nil, cerrors.Newf(cerrors.KindFatalConfiguration, "proxy", "empty proxy list")
	}
	r := &Rotator{
		cooldown:     5 * time.Minute,
		failureLimit: 3,
	}
	for _, addr := range addrs {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, cerrors.New(cerrors.KindFatalConfiguration, "proxy", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, cerrors.Newf(cerrors.KindFatalConfiguration, "proxy", "unsupported proxy scheme %q in %q", u.Scheme, addr)
		}
		r.endpoints = append(r.endpoints, &endpoint{addr: addr})
	}
	return r, nil
}

// Next returns the next usable proxy. When every endpoint is cooling down
// the least recently failed one is returned anyway; a degraded proxy beats
// no proxy for traffic that must not egress directly.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for i := 0; i < len(r.endpoints); i++ {
		ep := r.endpoints[r.next]
		r.next = (r.next + 1) % len(r.endpoints)
		if now.After(ep.badUntil) {
			return ep.addr
		}
	}

	oldest := r.endpoints[0]
	for _, ep := range r.endpoints[1:] {
		if ep.badUntil.Before(oldest.badUntil) {
			oldest = ep
		}
	}
	return oldest.addr
}

// MarkFailure records a session-level failure against a proxy. Crossing
// the failure limit puts the endpoint into cooldown and resets the count.
func (r *Rotator) MarkFailure(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ep := range r.endpoints {
		if ep.addr != addr {
			continue
		}
		ep.failures++
		if ep.failures >= r.failureLimit {
			ep.badUntil = time.Now().Add(r.cooldown)
			ep.failures = 0
		}
		return
	}
}

// Len reports the number of configured endpoints.
func (r *Rotator) Len() int { return len(r.endpoints) }
