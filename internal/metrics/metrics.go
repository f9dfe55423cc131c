// Package metrics provides Prometheus metrics for Genome AI monitoring
// Exports HTTP, AI provider, and report-generation metrics
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors for Genome AI
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// AI Metrics
	AIRequestsTotal    *prometheus.CounterVec
	AIRequestDuration  *prometheus.HistogramVec
	AITokensUsed       *prometheus.CounterVec
	AICostTotal        *prometheus.CounterVec
	AIProviderHealth   *prometheus.GaugeVec
	AIFallbacksTotal   *prometheus.CounterVec

	// Report Metrics
	ReportsGeneratedTotal *prometheus.CounterVec
	ImageFanoutFailures   prometheus.Counter

	// Persistence side-channel Metrics
	PersistWritesTotal  *prometheus.CounterVec
	PersistQueueLength  prometheus.Gauge

	// System Metrics
	BuildInfo *prometheus.GaugeVec
}

// Get returns the singleton Metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

// newMetrics creates and registers all Prometheus metrics
func newMetrics() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by endpoint, method, and status",
	}, []string{"endpoint", "method", "status"})

	m.HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "genome",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency distribution",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"endpoint", "method"})

	m.HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "genome",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Current number of in-flight HTTP requests",
	})

	m.AIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "Total AI provider requests by provider, capability, and status",
	}, []string{"provider", "capability", "status"})

	m.AIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "genome",
		Subsystem: "ai",
		Name:      "request_duration_seconds",
		Help:      "AI provider request latency distribution",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"provider", "capability"})

	m.AITokensUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "ai",
		Name:      "tokens_total",
		Help:      "Total tokens consumed by provider and direction",
	}, []string{"provider", "direction"})

	m.AICostTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "ai",
		Name:      "cost_dollars_total",
		Help:      "Estimated AI spend in dollars by provider",
	}, []string{"provider"})

	m.AIProviderHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "genome",
		Subsystem: "ai",
		Name:      "provider_health",
		Help:      "Provider health status (1 healthy, 0 unhealthy)",
	}, []string{"provider"})

	m.AIFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "ai",
		Name:      "fallbacks_total",
		Help:      "Requests rerouted to a fallback provider",
	}, []string{"from", "to"})

	m.ReportsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "reports",
		Name:      "generated_total",
		Help:      "Reports generated by kind (genome, ads, ad_intelligence, strategy)",
	}, []string{"kind"})

	m.ImageFanoutFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "reports",
		Name:      "image_fanout_failures_total",
		Help:      "Image slots that failed during concurrent generation",
	})

	m.PersistWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "genome",
		Subsystem: "persist",
		Name:      "writes_total",
		Help:      "Side-channel persistence attempts by outcome",
	}, []string{"outcome"})

	m.PersistQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "genome",
		Subsystem: "persist",
		Name:      "queue_length",
		Help:      "Pending writes in the side-channel queue",
	})

	m.BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "genome",
		Name:      "build_info",
		Help:      "Build information",
	}, []string{"version", "commit", "build_date"})

	return m
}

// RecordHTTPRequest records metrics for one HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint, method string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, HTTPStatusCode(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordAIRequest records metrics for one AI provider call
func (m *Metrics) RecordAIRequest(provider, capability, status string, duration time.Duration, inputTokens, outputTokens int, cost float64) {
	m.AIRequestsTotal.WithLabelValues(provider, capability, status).Inc()
	m.AIRequestDuration.WithLabelValues(provider, capability).Observe(duration.Seconds())
	m.AITokensUsed.WithLabelValues(provider, "input").Add(float64(inputTokens))
	m.AITokensUsed.WithLabelValues(provider, "output").Add(float64(outputTokens))
	m.AICostTotal.WithLabelValues(provider).Add(cost)
}

// SetBuildInfo records build metadata
func (m *Metrics) SetBuildInfo(version, commit, buildDate string) {
	m.BuildInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
