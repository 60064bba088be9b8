// Package browser owns the leasable browser sessions and the fixed-size
// pool that hands them out to workers.
package browser

import (
	"context"
	"time"

	"github.com/kvolkov/leadharvest/internal/antidetect"
	"github.com/kvolkov/leadharvest/internal/proxy"
)

// PageSession is one live browsing context. Implementations are not safe
// for concurrent use; the pool guarantees exclusive ownership while leased.
type PageSession interface {
	// Navigate loads a URL and waits for the document to be ready.
	Navigate(ctx context.Context, url string) error

	// HTML returns the rendered page markup.
	HTML(ctx context.Context) (string, error)

	// DismissPopups tries to close consent and sign-in interstitials.
	// Best effort; a popup that will not close is not an error.
	DismissPopups(ctx context.Context) error

	// SimulateReading performs the session's humanized scroll and mouse
	// sequence on the current page.
	SimulateReading(ctx context.Context) error

	// Close tears down the underlying browsing context.
	Close() error
}

// Factory creates a page session carrying the given identity. The pool
// calls it for initial fill and on every recycle.
type Factory func(ctx context.Context, fp antidetect.FingerprintProfile, bp antidetect.BehaviorProfile) (PageSession, error)

// Session is a pool-managed browser session. The profile pair is replaced
// only by recycle, never mutated in place.
type Session struct {
	ID          string
	Fingerprint antidetect.FingerprintProfile
	Behavior    antidetect.BehaviorProfile
	CreatedAt   time.Time

	page PageSession
	ops  int
}

// Page returns the underlying browsing context.
func (s *Session) Page() PageSession { return s.page }

// Operations returns the number of completed tasks served since the last
// recycle.
func (s *Session) Operations() int { return s.ops }

// Options configures the Chrome sessions produced by ChromeFactory.
type Options struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	NavigationTimeout time.Duration `yaml:"-" json:"-"`
	DisableImages     bool          `yaml:"disable_images" json:"disable_images"`
	ProxyURL          string        `yaml:"proxy_url,omitempty" json:"proxy_url,omitempty"`

	// Proxies, when set, overrides ProxyURL: each new session draws its
	// exit from the rotator.
	Proxies *proxy.Rotator `yaml:"-" json:"-"`
}

// DefaultOptions returns the production launch configuration.
func DefaultOptions() Options {
	return Options{
		Headless:          true,
		NavigationTimeout: 30 * time.Second,
		DisableImages:     true,
	}
}
