package browser

import (
	"context"
	"testing"
	"time"

	"github.com/kvolkov/leadharvest/internal/proxy"
)

// idleSession builds a chromeSession shell with no browser behind it, enough
// to exercise context plumbing and proxy bookkeeping.
func idleSession(ctx context.Context) *chromeSession {
	return &chromeSession{ctx: ctx}
}

func TestOpContextCarriesCallerDeadline(t *testing.T) {
	s := idleSession(context.Background())
	caller, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	opCtx, release := s.opContext(caller)
	defer release()

	want, _ := caller.Deadline()
	got, ok := opCtx.Deadline()
	if !ok {
		t.Fatal("op context carries no deadline")
	}
	if !got.Equal(want) {
		t.Fatalf("op deadline = %v, want %v", got, want)
	}

	select {
	case <-opCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("op context did not expire with the caller deadline")
	}
	if opCtx.Err() != context.DeadlineExceeded {
		t.Errorf("op err = %v, want deadline exceeded", opCtx.Err())
	}
}

func TestOpContextCancelledByCaller(t *testing.T) {
	s := idleSession(context.Background())
	caller, cancelCaller := context.WithCancel(context.Background())

	opCtx, release := s.opContext(caller)
	defer release()

	cancelCaller()
	select {
	case <-opCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("caller cancellation did not reach the op context")
	}
}

func TestOpContextCancelledBySessionClose(t *testing.T) {
	tab, closeTab := context.WithCancel(context.Background())
	s := idleSession(tab)

	opCtx, release := s.opContext(context.Background())
	defer release()

	closeTab()
	select {
	case <-opCtx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session teardown did not reach the op context")
	}
}

func TestOpContextRelease(t *testing.T) {
	s := idleSession(context.Background())
	caller, cancelCaller := context.WithCancel(context.Background())
	defer cancelCaller()

	opCtx, release := s.opContext(caller)
	release()
	if opCtx.Err() == nil {
		t.Error("release should cancel the op context")
	}
}

func TestPickProxy(t *testing.T) {
	rot, err := proxy.NewRotator([]string{"http://a:3128", "http://b:3128"})
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}

	if got := pickProxy(Options{ProxyURL: "http://static:3128", Proxies: rot}); got != "http://a:3128" {
		t.Errorf("rotator should win over the static proxy, got %q", got)
	}
	if got := pickProxy(Options{ProxyURL: "http://static:3128"}); got != "http://static:3128" {
		t.Errorf("static proxy = %q", got)
	}
	if got := pickProxy(Options{}); got != "" {
		t.Errorf("no proxy configured, got %q", got)
	}
}

func TestReportLaunchFailureCoolsProxyDown(t *testing.T) {
	rot, err := proxy.NewRotator([]string{"http://a:3128", "http://b:3128"})
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	opts := Options{Proxies: rot}

	for i := 0; i < 3; i++ {
		reportLaunchFailure(opts, "http://a:3128")
	}
	for i := 0; i < 6; i++ {
		if got := rot.Next(); got == "http://a:3128" {
			t.Fatalf("draw %d returned a proxy that should be cooling down", i)
		}
	}
}

func TestReportLaunchFailureToleratesMissingProxy(t *testing.T) {
	reportLaunchFailure(Options{}, "http://a:3128")

	rot, err := proxy.NewRotator([]string{"http://a:3128"})
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	reportLaunchFailure(Options{Proxies: rot}, "")
	if got := rot.Next(); got != "http://a:3128" {
		t.Errorf("empty proxy address must not strike any endpoint, got %q", got)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if !opts.Headless {
		t.Error("default options should run headless")
	}
	if opts.NavigationTimeout != 30*time.Second {
		t.Errorf("navigation timeout = %v, want 30s", opts.NavigationTimeout)
	}
	if !opts.DisableImages {
		t.Error("default options should disable image loading")
	}
}
