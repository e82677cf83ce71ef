package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics carries the request-level and pipeline-level metrics
// on a private registry.
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	assistantRunsTotal *prometheus.CounterVec
	agentIterations    prometheus.Histogram
	evidenceItems      prometheus.Histogram
	searchesTotal      *prometheus.CounterVec
	rerankTotal        *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	m := &HTTPServerMetrics{
		registry: registry,
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "lovdata",
				Subsystem:   "http",
				Name:        "requests_total",
				Help:        "Total HTTP requests processed.",
				ConstLabels: labels,
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   "lovdata",
				Subsystem:   "http",
				Name:        "request_duration_seconds",
				Help:        "HTTP request duration in seconds.",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"method", "path"},
		),
		requestInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   "lovdata",
				Subsystem:   "http",
				Name:        "requests_in_flight",
				Help:        "HTTP requests currently being served.",
				ConstLabels: labels,
			},
		),
		assistantRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "lovdata",
				Subsystem:   "assistant",
				Name:        "runs_total",
				Help:        "Assistant runs by outcome.",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
		agentIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "lovdata",
				Subsystem:   "assistant",
				Name:        "agent_iterations",
				Help:        "Model iterations per assistant run.",
				Buckets:     []float64{1, 2, 3, 4, 5},
				ConstLabels: labels,
			},
		),
		evidenceItems: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   "lovdata",
				Subsystem:   "assistant",
				Name:        "evidence_items",
				Help:        "Evidence items accumulated per assistant run.",
				Buckets:     []float64{0, 1, 2, 4, 6, 10, 20},
				ConstLabels: labels,
			},
		),
		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "lovdata",
				Subsystem:   "search",
				Name:        "requests_total",
				Help:        "Corpus searches by resolved law type.",
				ConstLabels: labels,
			},
			[]string{"law_type"},
		),
		rerankTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   "lovdata",
				Subsystem:   "search",
				Name:        "rerank_total",
				Help:        "Re-ranking attempts by outcome.",
				ConstLabels: labels,
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.requestTotal,
		m.requestDuration,
		m.requestInFlight,
		m.assistantRunsTotal,
		m.agentIterations,
		m.evidenceItems,
		m.searchesTotal,
		m.rerankTotal,
	)
	return m
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *HTTPServerMetrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	m.requestTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *HTTPServerMetrics) RequestStarted()  { m.requestInFlight.Inc() }
func (m *HTTPServerMetrics) RequestFinished() { m.requestInFlight.Dec() }

// ObserveAssistantRun records the outcome of one agent run.
func (m *HTTPServerMetrics) ObserveAssistantRun(iterations, evidenceCount int, fallbackReason string) {
	outcome := "answered"
	if fallbackReason != "" {
		outcome = fallbackReason
	}
	m.assistantRunsTotal.WithLabelValues(outcome).Inc()
	m.agentIterations.Observe(float64(iterations))
	m.evidenceItems.Observe(float64(evidenceCount))
}

func (m *HTTPServerMetrics) ObserveSearch(lawType string) {
	if lawType == "" {
		lawType = "none"
	}
	m.searchesTotal.WithLabelValues(lawType).Inc()
}

func (m *HTTPServerMetrics) ObserveRerank(applied bool) {
	outcome := "skipped"
	if applied {
		outcome = "applied"
	}
	m.rerankTotal.WithLabelValues(outcome).Inc()
}
