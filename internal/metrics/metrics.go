// Package metrics exposes chart cache activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/cache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements cache.Observer on a private registry.
type Metrics struct {
	registry      *prometheus.Registry
	cacheRequests *prometheus.CounterVec
	upstreamFetch *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	expiresAt     prometheus.Gauge
}

var _ cache.Observer = (*Metrics)(nil)

// New creates and registers the chart cache metrics.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chart_cache_requests_total",
		Help: "Chart data requests by freshness",
	}, []string{"freshness"})

	upstreamFetch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chart_upstream_fetch_total",
		Help: "Upstream chart fetches by result",
	}, []string{"result"})

	fetchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chart_upstream_fetch_duration_seconds",
		Help:    "Upstream chart fetch duration",
		Buckets: prometheus.DefBuckets,
	})

	expiresAt := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chart_cache_expires_at_seconds",
		Help: "Unix time at which the cached chart payload expires",
	})

	registry.MustRegister(cacheRequests, upstreamFetch, fetchDuration, expiresAt)

	return &Metrics{
		registry:      registry,
		cacheRequests: cacheRequests,
		upstreamFetch: upstreamFetch,
		fetchDuration: fetchDuration,
		expiresAt:     expiresAt,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveServe(freshness cache.Freshness) {
	if m == nil {
		return
	}
	m.cacheRequests.WithLabelValues(string(freshness)).Inc()
}

func (m *Metrics) ObserveFetch(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.upstreamFetch.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveExpiry(expiresAt time.Time) {
	if m == nil {
		return
	}
	m.expiresAt.Set(float64(expiresAt.Unix()))
}
