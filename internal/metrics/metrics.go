// Package metrics exposes Prometheus collectors for the assistant loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lookout"

// Cycle results.
const (
	ResultSpoken    = "spoken"
	ResultEmpty     = "empty"
	ResultError     = "error"
	ResultDiscarded = "discarded"
)

// Metrics holds the collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cycles       *prometheus.CounterVec
	skipped      prometheus.Counter
	analysis     *prometheus.HistogramVec
	utterances   *prometheus.CounterVec
	sessionGauge prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cycles_total",
				Help:      "Capture-analyze-speak cycles by result",
			},
			[]string{"result"}, // spoken, empty, error, discarded
		),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Ticks dropped because a cycle or utterance was in progress",
		}),
		analysis: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of scene analysis calls in seconds",
				Buckets:   []float64{.25, .5, 1, 1.5, 2, 3, 5, 10, 30},
			},
			[]string{"provider", "status"},
		),
		utterances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "utterances_total",
				Help:      "Utterances handed to the speaker by kind",
			},
			[]string{"kind"}, // description, fallback, error, announce
		),
		sessionGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_active",
			Help:      "1 while the assistant is running",
		}),
	}

	m.registry.MustRegister(
		m.cycles,
		m.skipped,
		m.analysis,
		m.utterances,
		m.sessionGauge,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Cycle counts a finished cycle.
func (m *Metrics) Cycle(result string) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result).Inc()
}

// TickSkipped counts a dropped tick.
func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}
	m.skipped.Inc()
}

// ObserveAnalysis records the latency of one analyzer call.
func (m *Metrics) ObserveAnalysis(provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.analysis.WithLabelValues(provider, status).Observe(d.Seconds())
}

// Utterance counts an utterance of the given kind.
func (m *Metrics) Utterance(kind string) {
	if m == nil {
		return
	}
	m.utterances.WithLabelValues(kind).Inc()
}

// SetActive flips the session gauge.
func (m *Metrics) SetActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.sessionGauge.Set(1)
	} else {
		m.sessionGauge.Set(0)
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
