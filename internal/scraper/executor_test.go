package scraper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kvolkov/leadharvest/internal/antidetect"
	"github.com/kvolkov/leadharvest/internal/browser"
	cerrors "github.com/kvolkov/leadharvest/internal/errors"
)

const plainPage = `<html><head><title>Acme Corp</title></head><body><p>Contact us at sales@acme.example or call +1 212 555 0100.</p></body></html>`

const blockedPage = `<html><head><title>Just a moment...</title></head><body></body></html>`

// stubPage is a PageSession whose navigation behavior is scripted per test.
type stubPage struct {
	mu       sync.Mutex
	html     string
	navErr   error
	navFails int // navigations that return navErr before succeeding
	navCalls int
	hangNav  bool // navigate blocks until the context expires
	closed   bool
}

func (p *stubPage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navCalls++
	hang := p.hangNav
	var err error
	if p.navFails != 0 {
		if p.navFails > 0 {
			p.navFails--
		}
		err = p.navErr
	}
	p.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (p *stubPage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *stubPage) DismissPopups(ctx context.Context) error   { return nil }
func (p *stubPage) SimulateReading(ctx context.Context) error { return nil }

func (p *stubPage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *stubPage) navigations() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.navCalls
}

// leaseStub puts one scripted page behind a pool and leases it.
func leaseStub(t *testing.T, page *stubPage) (*browser.Pool, *browser.Session) {
	t.Helper()
	factory := func(ctx context.Context, fp antidetect.FingerprintProfile, bp antidetect.BehaviorProfile) (browser.PageSession, error) {
		return page, nil
	}
	pool, err := browser.NewPool(context.Background(),
		browser.PoolConfig{Size: 1, ReuseLimit: 100},
		factory, antidetect.NewGenerator(), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { pool.Shutdown() })

	sess, err := pool.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	return pool, sess
}

func echoExtractor(ctx context.Context, url, html string) (interface{}, error) {
	return url, nil
}

func newTestExecutor(extract ExtractorFunc, taint TaintPolicy, timeout time.Duration) *Executor {
	return NewExecutor(NewRateLimiter(0, 0, nil), extract, taint, timeout, zerolog.Nop(), nil)
}

func TestExecutorSuccess(t *testing.T) {
	page := &stubPage{html: plainPage}
	_, sess := leaseStub(t, page)

	exec := newTestExecutor(echoExtractor, DefaultTaintPolicy(), time.Second)
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if out.Kind != OutcomeSuccess {
		t.Fatalf("outcome = %v (%v), want success", out.Kind, out.Err)
	}
	if out.Payload != "https://acme.example" {
		t.Errorf("payload = %v", out.Payload)
	}
	if out.TaintSession {
		t.Error("successful attempt must not taint the session")
	}
}

func TestExecutorBlockDetected(t *testing.T) {
	page := &stubPage{html: blockedPage}
	_, sess := leaseStub(t, page)

	exec := newTestExecutor(echoExtractor, DefaultTaintPolicy(), time.Second)
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if out.Kind != OutcomeRetry {
		t.Fatalf("outcome = %v, want retry", out.Kind)
	}
	if cerrors.KindOf(out.Err) != cerrors.KindDetectionBlocked {
		t.Errorf("error kind = %v, want detection_blocked", cerrors.KindOf(out.Err))
	}
	if !out.TaintSession {
		t.Error("a served challenge must taint the session under the default policy")
	}
}

func TestExecutorBlockWithTaintDisabled(t *testing.T) {
	page := &stubPage{html: blockedPage}
	_, sess := leaseStub(t, page)

	policy := TaintPolicy{TaintOnBlock: false, TaintOnTimeout: true}
	exec := newTestExecutor(echoExtractor, policy, time.Second)
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if out.Kind != OutcomeRetry || out.TaintSession {
		t.Errorf("outcome = %v taint = %v, want retry without taint", out.Kind, out.TaintSession)
	}
}

func TestExecutorTransientNetworkError(t *testing.T) {
	page := &stubPage{navErr: errors.New("page load error net::ERR_CONNECTION_REFUSED"), navFails: -1}
	_, sess := leaseStub(t, page)

	exec := newTestExecutor(echoExtractor, DefaultTaintPolicy(), time.Second)
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if out.Kind != OutcomeRetry {
		t.Fatalf("outcome = %v, want retry", out.Kind)
	}
	if cerrors.KindOf(out.Err) != cerrors.KindTransientNetwork {
		t.Errorf("error kind = %v, want transient_network", cerrors.KindOf(out.Err))
	}
	if out.TaintSession {
		t.Error("a network failure must not taint the session")
	}
}

func TestExecutorUnknownNavigationErrorIsFatal(t *testing.T) {
	page := &stubPage{navErr: errors.New("invalid frame id"), navFails: -1}
	_, sess := leaseStub(t, page)

	exec := newTestExecutor(echoExtractor, DefaultTaintPolicy(), time.Second)
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if out.Kind != OutcomeFatal {
		t.Errorf("outcome = %v, want fatal for an unclassified navigation error", out.Kind)
	}
}

func TestExecutorTimeout(t *testing.T) {
	page := &stubPage{hangNav: true}
	_, sess := leaseStub(t, page)

	exec := newTestExecutor(echoExtractor, DefaultTaintPolicy(), 30*time.Millisecond)
	start := time.Now()
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if time.Since(start) > time.Second {
		t.Fatal("attempt was not bounded by the task timeout")
	}
	if out.Kind != OutcomeRetry {
		t.Fatalf("outcome = %v, want retry", out.Kind)
	}
	if cerrors.KindOf(out.Err) != cerrors.KindTaskTimeout {
		t.Errorf("error kind = %v, want task_timeout", cerrors.KindOf(out.Err))
	}
	if !out.TaintSession {
		t.Error("a timed-out attempt must taint the session under the default policy")
	}
}

func TestExecutorExtractorErrorIsFatal(t *testing.T) {
	page := &stubPage{html: plainPage}
	_, sess := leaseStub(t, page)

	rejecting := func(ctx context.Context, url, html string) (interface{}, error) {
		return nil, errors.New("schema mismatch")
	}
	exec := newTestExecutor(rejecting, DefaultTaintPolicy(), time.Second)
	out := exec.Run(context.Background(), &Task{URL: "https://acme.example", Attempts: 1}, sess)

	if out.Kind != OutcomeFatal {
		t.Fatalf("outcome = %v, want fatal", out.Kind)
	}
	if cerrors.KindOf(out.Err) != cerrors.KindCollaborator {
		t.Errorf("error kind = %v, want collaborator", cerrors.KindOf(out.Err))
	}
	if out.TaintSession {
		t.Error("an extractor failure must not taint the session")
	}
}
