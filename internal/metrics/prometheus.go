// Package metrics provides Prometheus metrics for the TalentRank service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeFresh    = "fresh"
	OutcomeComputed = "computed"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// Cache lookup results.
const (
	LookupFresh = "fresh"
	LookupStale = "stale"
	LookupMiss  = "miss"
)

// Manager owns every TalentRank metric. A nil *Manager records nothing.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
	sharedWaits      prometheus.Counter
	providerCalls    *prometheus.CounterVec
	quotaRemaining   prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager. Without WithPrometheusRegistry it
// registers on a private registry, so several managers can coexist in tests.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "talentrank",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.analyses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "analyses_total",
		Help:      "Analysis requests by outcome",
	}, []string{"outcome"})

	m.analysisDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Duration of analyses that ran the pipeline",
		Buckets:   m.histogramBuckets,
	})

	m.cacheLookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result",
	}, []string{"result"})

	m.sharedWaits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "cache",
		Name:      "shared_computations_total",
		Help:      "Requests served by joining an in-flight computation",
	})

	m.providerCalls = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "fetches_total",
		Help:      "Provider sub-fetches by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	m.quotaRemaining = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "quota",
		Name:      "remaining",
		Help:      "Provider calls left in the current quota window",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   m.histogramBuckets,
	}, []string{"route"})
}

func (m *Manager) active() bool { return m != nil && m.enabled }

// RecordAnalysis counts one analysis with its outcome. A zero duration is not observed.
func (m *Manager) RecordAnalysis(outcome string, d time.Duration) {
	if !m.active() {
		return
	}
	m.analyses.WithLabelValues(outcome).Inc()
	if d > 0 {
		m.analysisDuration.Observe(d.Seconds())
	}
}

// RecordCacheLookup counts one cache lookup.
func (m *Manager) RecordCacheLookup(result string) {
	if !m.active() {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordSharedWait counts a request that joined an in-flight computation.
func (m *Manager) RecordSharedWait() {
	if !m.active() {
		return
	}
	m.sharedWaits.Inc()
}

// RecordFetch counts one provider sub-fetch.
func (m *Manager) RecordFetch(endpoint string, err error) {
	if !m.active() {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.providerCalls.WithLabelValues(endpoint, outcome).Inc()
}

// SetQuotaRemaining publishes the local quota view.
func (m *Manager) SetQuotaRemaining(n int) {
	if !m.active() {
		return
	}
	m.quotaRemaining.Set(float64(n))
}

// RecordHTTPRequest counts one served HTTP request.
func (m *Manager) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if !m.active() {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the metrics are registered on.
func (m *Manager) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
