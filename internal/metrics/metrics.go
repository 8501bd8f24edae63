package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes painter metrics for Prometheus. A nil *Metrics records
// nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rendersTotal        *prometheus.CounterVec
	renderDuration      prometheus.Histogram
	storeLookups        *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoplot",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by the painter",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geoplot",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by the painter",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	rendersTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoplot",
		Name:      "renders_total",
		Help:      "Marker images rasterized, by renderer and outcome",
	}, []string{"renderer", "outcome"})

	renderDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geoplot",
		Name:      "render_duration_seconds",
		Help:      "Time spent rasterizing one marker image",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
	})

	storeLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geoplot",
		Name:      "store_lookups_total",
		Help:      "Rendered image store lookups, by result",
	}, []string{"result"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		rendersTotal,
		renderDuration,
		storeLookups,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		rendersTotal:        rendersTotal,
		renderDuration:      renderDuration,
		storeLookups:        storeLookups,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle. path
// should be a route pattern, not the raw URL.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveRender records one rasterization.
func (m *Metrics) ObserveRender(renderer string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.rendersTotal.WithLabelValues(renderer, outcome).Inc()
	m.renderDuration.Observe(duration.Seconds())
}

// ObserveStore records a store hit or miss.
func (m *Metrics) ObserveStore(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.storeLookups.WithLabelValues(result).Inc()
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
