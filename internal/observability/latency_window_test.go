package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestLatencyWindowSnapshot(t *testing.T) {
	w := NewLatencyWindow(8)
	w.Observe("get_job", 500)
	w.Observe("get_job", 700)
	w.Observe("get_job", 900)
	w.Observe("list_voices", 40)
	w.ObserveFailure("get_job", "transport_error")
	w.ObserveFailure("get_job", "transport_error")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Operations) != 2 {
		t.Fatalf("len(Operations) = %d, want 2", len(snap.Operations))
	}
	s := snap.Operations[0]
	if s.Operation != "get_job" {
		t.Fatalf("Operation = %q, want get_job", s.Operation)
	}
	if s.Samples != 3 || s.LastMS != 900 || s.P50MS != 700 || s.AvgMS != 700 {
		t.Fatalf("stats = %+v", s)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if len(snap.Failures) != 1 || snap.Failures[0].Count != 2 || snap.Failures[0].Outcome != "transport_error" {
		t.Fatalf("Failures = %+v", snap.Failures)
	}
}

func TestLatencyWindowWrapsAround(t *testing.T) {
	w := NewLatencyWindow(2)
	w.Observe("login", 100)
	w.Observe("login", 200)
	w.Observe("login", 300)

	s := w.Snapshot().Operations[0]
	if s.Samples != 2 {
		t.Fatalf("Samples = %d, want 2", s.Samples)
	}
	if s.AvgMS != 250 {
		t.Fatalf("AvgMS = %.2f, want 250 (oldest sample evicted)", s.AvgMS)
	}
}

func TestLatencyWindowIgnoresInvalidSamples(t *testing.T) {
	w := NewLatencyWindow(4)
	w.Observe("", 10)
	w.Observe("login", -1)
	w.ObserveFailure("login", " ")
	snap := w.Snapshot()
	if len(snap.Operations) != 0 || len(snap.Failures) != 0 {
		t.Fatalf("snapshot = %+v, want empty", snap)
	}

	var nilWindow *LatencyWindow
	nilWindow.Observe("login", 10)
	if got := nilWindow.Snapshot(); got.Operations == nil {
		t.Fatalf("nil window snapshot must have an empty operations list")
	}
}

func TestMetricsFeedLatencyWindow(t *testing.T) {
	m := NewMetricsWith(prometheus.NewRegistry(), "test")
	m.ObserveAPIRequest("get_job", "ok", 120*time.Millisecond)
	m.ObserveAPIRequest("get_job", "api_error", 80*time.Millisecond)

	snap := m.APILatencySnapshot()
	if len(snap.Operations) != 1 || snap.Operations[0].Samples != 2 {
		t.Fatalf("Operations = %+v", snap.Operations)
	}
	if len(snap.Failures) != 1 || snap.Failures[0].Outcome != "api_error" {
		t.Fatalf("Failures = %+v", snap.Failures)
	}

	var none *Metrics
	if got := none.APILatencySnapshot(); len(got.Operations) != 0 {
		t.Fatalf("nil metrics snapshot = %+v", got)
	}
}
