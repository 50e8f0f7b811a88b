package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// OperationLatency summarises the most recent calls of one remote API
// operation.
type OperationLatency struct {
	Operation string  `json:"operation"`
	Samples   int     `json:"samples"`
	LastMS    float64 `json:"last_ms"`
	AvgMS     float64 `json:"avg_ms"`
	P50MS     float64 `json:"p50_ms"`
	P95MS     float64 `json:"p95_ms"`
	P99MS     float64 `json:"p99_ms"`
}

type FailureCount struct {
	Operation string `json:"operation"`
	Outcome   string `json:"outcome"`
	Count     int    `json:"count"`
}

type LatencySnapshot struct {
	GeneratedAt time.Time          `json:"generated_at"`
	WindowSize  int                `json:"window_size"`
	Operations  []OperationLatency `json:"operations"`
	Failures    []FailureCount     `json:"failures,omitempty"`
}

// LatencyWindow keeps a fixed-size ring of durations per operation so the
// status page can show recent percentiles without querying Prometheus.
type LatencyWindow struct {
	mu         sync.RWMutex
	maxSamples int
	ops        map[string]*latencyRing
	failures   map[failureKey]int
}

type failureKey struct {
	op      string
	outcome string
}

type latencyRing struct {
	values []float64
	next   int
	filled bool
	last   float64
}

func NewLatencyWindow(maxSamples int) *LatencyWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &LatencyWindow{
		maxSamples: maxSamples,
		ops:        make(map[string]*latencyRing),
		failures:   make(map[failureKey]int),
	}
}

func (w *LatencyWindow) Observe(op string, ms float64) {
	if w == nil || op == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	ring, ok := w.ops[op]
	if !ok {
		ring = &latencyRing{values: make([]float64, w.maxSamples)}
		w.ops[op] = ring
	}
	ring.values[ring.next] = ms
	ring.last = ms
	ring.next++
	if ring.next >= len(ring.values) {
		ring.next = 0
		ring.filled = true
	}
}

// ObserveFailure counts a call of op that ended with outcome.
func (w *LatencyWindow) ObserveFailure(op, outcome string) {
	if w == nil {
		return
	}
	op = strings.TrimSpace(op)
	outcome = strings.TrimSpace(outcome)
	if op == "" || outcome == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.failures[failureKey{op: op, outcome: outcome}]++
}

func (w *LatencyWindow) Snapshot() LatencySnapshot {
	if w == nil {
		return LatencySnapshot{GeneratedAt: time.Now().UTC(), Operations: []OperationLatency{}}
	}
	w.mu.RLock()
	defer w.mu.RUnlock()

	names := make([]string, 0, len(w.ops))
	for op := range w.ops {
		names = append(names, op)
	}
	sort.Strings(names)

	ops := make([]OperationLatency, 0, len(names))
	for _, op := range names {
		ring := w.ops[op]
		n := ring.next
		if ring.filled {
			n = len(ring.values)
		}
		if n == 0 {
			continue
		}
		samples := make([]float64, n)
		copy(samples, ring.values[:n])
		sort.Float64s(samples)

		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		ops = append(ops, OperationLatency{
			Operation: op,
			Samples:   n,
			LastMS:    round2(ring.last),
			AvgMS:     round2(sum / float64(n)),
			P50MS:     round2(quantile(samples, 0.50)),
			P95MS:     round2(quantile(samples, 0.95)),
			P99MS:     round2(quantile(samples, 0.99)),
		})
	}

	failures := make([]FailureCount, 0, len(w.failures))
	for k, count := range w.failures {
		failures = append(failures, FailureCount{Operation: k.op, Outcome: k.outcome, Count: count})
	}
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Operation != failures[j].Operation {
			return failures[i].Operation < failures[j].Operation
		}
		return failures[i].Outcome < failures[j].Outcome
	})

	return LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Operations:  ops,
		Failures:    failures,
	}
}

// quantile interpolates linearly between the two nearest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
