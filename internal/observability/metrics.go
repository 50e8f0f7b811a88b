package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the front-end.
type Metrics struct {
	APIRequests        *prometheus.CounterVec
	APILatency         *prometheus.HistogramVec
	GenerationOutcomes *prometheus.CounterVec
	PollAttempts       prometheus.Histogram
	ActiveGenerations  prometheus.Gauge
	SessionEvents      *prometheus.CounterVec
	WSMessages         *prometheus.CounterVec

	recent *LatencyWindow
}

// NewMetrics registers instruments on the default Prometheus registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers instruments on reg. Tests pass a fresh registry so
// repeated construction does not collide.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		APIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Remote TTS API requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		APILatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_ms",
			Help:      "Remote TTS API request latency in milliseconds.",
			Buckets:   []float64{25, 50, 100, 200, 400, 800, 1600, 3200, 6400},
		}, []string{"operation"}),
		GenerationOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_outcomes_total",
			Help:      "Generation workflow terminal outcomes by state.",
		}, []string{"state"}),
		PollAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_poll_attempts",
			Help:      "Job status polls issued per generation run.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 30},
		}),
		ActiveGenerations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_generations",
			Help:      "Generation workflows that have not reached a terminal state.",
		}),
		SessionEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Browser session events by type.",
		}, []string{"event"}),
		WSMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),

		recent: NewLatencyWindow(256),
	}
}

func (m *Metrics) ObserveAPIRequest(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.APIRequests.WithLabelValues(operation, outcome).Inc()
	m.APILatency.WithLabelValues(operation).Observe(float64(d.Milliseconds()))
	m.recent.Observe(operation, float64(d.Microseconds())/1000)
	if outcome != "ok" {
		m.recent.ObserveFailure(operation, outcome)
	}
}

// APILatencySnapshot reports recent per-operation latency of the remote API.
func (m *Metrics) APILatencySnapshot() LatencySnapshot {
	if m == nil {
		return (*LatencyWindow)(nil).Snapshot()
	}
	return m.recent.Snapshot()
}

func (m *Metrics) ObserveGeneration(state string, polls int) {
	if m == nil {
		return
	}
	m.GenerationOutcomes.WithLabelValues(state).Inc()
	m.PollAttempts.Observe(float64(polls))
}

func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.SessionEvents.WithLabelValues(event).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
