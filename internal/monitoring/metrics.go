// Package monitoring exposes run instrumentation as Prometheus metrics and
// serves them over HTTP together with a health probe.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects engine instrumentation. All recording methods are
// nil-safe so components can run without metrics wired (tests, library use).
type Metrics struct {
	registry *prometheus.Registry

	tasksTotal    *prometheus.CounterVec
	taskDuration  prometheus.Histogram
	taskRetries   prometheus.Counter
	batchesTotal  prometheus.Counter
	rateLimitWait prometheus.Histogram

	sessionsCreated  prometheus.Counter
	sessionsRecycled prometheus.Counter
	sessionsLeased   prometheus.Gauge
}

// NewMetrics builds a metrics set on a private registry so two engines in
// one process never collide on collector names.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "leadharvest"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		tasksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Scrape tasks by terminal outcome.",
		}, []string{"outcome"}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time of one scrape attempt.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		taskRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_retries_total",
			Help:      "Attempts re-enqueued after a retryable failure.",
		}),
		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Batches fully drained.",
		}),
		rateLimitWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent blocked on the global request gate.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		sessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Browser sessions launched (initial fill plus recycles).",
		}),
		sessionsRecycled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_recycled_total",
			Help:      "Sessions destroyed and relaunched with a fresh profile.",
		}),
		sessionsLeased: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_leased",
			Help:      "Sessions currently leased to workers.",
		}),
	}
}

func (m *Metrics) TaskFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.tasksTotal.WithLabelValues(outcome).Inc()
	m.taskDuration.Observe(d.Seconds())
}

func (m *Metrics) TaskRetried() {
	if m == nil {
		return
	}
	m.taskRetries.Inc()
}

func (m *Metrics) BatchCompleted() {
	if m == nil {
		return
	}
	m.batchesTotal.Inc()
}

func (m *Metrics) RateLimitWaited(d time.Duration) {
	if m == nil {
		return
	}
	m.rateLimitWait.Observe(d.Seconds())
}

func (m *Metrics) SessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

func (m *Metrics) SessionRecycled() {
	if m == nil {
		return
	}
	m.sessionsRecycled.Inc()
}

func (m *Metrics) SessionLeased() {
	if m == nil {
		return
	}
	m.sessionsLeased.Inc()
}

func (m *Metrics) SessionReleased() {
	if m == nil {
		return
	}
	m.sessionsLeased.Dec()
}
