// Package metrics exposes Prometheus instrumentation for the widget
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	Conversions      *prometheus.CounterVec
	Actions          *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rate_api_requests_total",
				Help: "Requests issued to the upstream rate API",
			},
			[]string{"endpoint", "outcome"},
		),

		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rate_api_request_duration_seconds",
				Help:    "Latency of upstream rate API requests",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
			},
			[]string{"endpoint"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "local_cache_lookups_total",
				Help: "Local cache reads by key namespace and result",
			},
			[]string{"namespace", "result"},
		),

		Conversions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conversions_total",
				Help: "Currency conversions by outcome",
			},
			[]string{"outcome"},
		),

		Actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "view_actions_total",
				Help: "UI commands dispatched to the view",
			},
			[]string{"action", "outcome"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests served by route template and status",
			},
			[]string{"route", "method", "status"},
		),
	}
}

// Registry exposes the underlying registry, mostly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream request
func (m *Metrics) ObserveUpstream(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObserveCacheLookup records a cache read. Keys like "historical-USD-EUR"
// are folded into their "historical" namespace.
func (m *Metrics) ObserveCacheLookup(key, result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(Namespace(key), result).Inc()
}

// ObserveConversion records a conversion outcome
func (m *Metrics) ObserveConversion(outcome string) {
	if m == nil {
		return
	}
	m.Conversions.WithLabelValues(outcome).Inc()
}

// ObserveAction records a dispatched UI command
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
}

// ObserveHTTP records a served request
func (m *Metrics) ObserveHTTP(route, method, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, status).Inc()
}

// Namespace returns the part of a cache key before the first dash
func Namespace(key string) string {
	if i := strings.IndexByte(key, '-'); i > 0 {
		return key[:i]
	}
	return key
}
