package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	// Every recording method must be callable on a nil receiver so the
	// engine can run without a collector attached.
	m.TaskFinished("succeeded", time.Second)
	m.TaskRetried()
	m.BatchCompleted()
	m.RateLimitWaited(time.Millisecond)
	m.SessionCreated()
	m.SessionRecycled()
	m.SessionLeased()
	m.SessionReleased()
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics("leadharvest_test")
	m.TaskFinished("succeeded", 250*time.Millisecond)
	m.TaskFinished("failed", time.Second)
	m.SessionCreated()

	srv := NewServer(":0", m, zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`leadharvest_test_tasks_total{outcome="succeeded"} 1`,
		`leadharvest_test_tasks_total{outcome="failed"} 1`,
		`leadharvest_test_sessions_created_total 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %q", want)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(":0", NewMetrics("leadharvest_test2"), zerolog.Nop())

	rec := httptest.NewRecorder()
	srv.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("health payload: %v", err)
	}
	if payload["status"] != "ok" {
		t.Errorf("status = %q, want ok", payload["status"])
	}
}
