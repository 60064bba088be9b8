package scraper

import (
	"errors"
	"testing"
)

func TestAggregator(t *testing.T) {
	agg := NewAggregator()

	agg.RecordSuccess("https://a.example", &Contact{URL: "https://a.example"})
	agg.RecordSuccess("https://b.example", &Contact{URL: "https://b.example"})
	agg.RecordFailure("https://c.example", errors.New("net::ERR_CONNECTION_RESET"), 2)

	succeeded, failed := agg.Counts()
	if succeeded != 2 || failed != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", succeeded, failed)
	}

	result := agg.Finalize(3, 1)
	m := result.Metrics
	if m.TasksCompleted != 2 || m.TasksFailed != 1 {
		t.Errorf("metrics tasks = %d/%d, want 2/1", m.TasksCompleted, m.TasksFailed)
	}
	if m.SessionsCreated != 3 || m.SessionsRecycled != 1 {
		t.Errorf("metrics sessions = %d/%d, want 3/1", m.SessionsCreated, m.SessionsRecycled)
	}
	want := 2.0 / 3.0
	if m.SuccessRate < want-0.001 || m.SuccessRate > want+0.001 {
		t.Errorf("success rate = %v, want %v", m.SuccessRate, want)
	}
	if m.Elapsed <= 0 || m.Throughput <= 0 {
		t.Errorf("timing metrics not populated: %+v", m)
	}
	if result.Failures[0].Reason == "" {
		t.Error("failure reason should carry the error text")
	}
}

func TestAggregatorEmptyRun(t *testing.T) {
	agg := NewAggregator()
	result := agg.Finalize(0, 0)
	if result.Metrics.SuccessRate != 0 {
		t.Errorf("success rate of an empty run = %v, want 0", result.Metrics.SuccessRate)
	}
	if result.Successes == nil || result.Failures == nil {
		t.Error("result lists should be non-nil even when empty")
	}
}
