package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricHTTPRequestDuration   = "http_request_duration_seconds"
	MetricHTTPRequestsTotal     = "http_requests_total"
	MetricHTTPResponseSizeBytes = "http_response_size_bytes"
	MetricMutationsTotal        = "registry_mutations_total"
)

// Metrics contains Prometheus metrics for the API server.
// All operations are thread-safe.
type Metrics struct {
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec
	httpResponseSize    *prometheus.HistogramVec
	mutationsTotal      *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPRequestDuration,
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0},
			},
			[]string{"method", "path", "status"},
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricHTTPRequestsTotal,
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricHTTPResponseSizeBytes,
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path", "status"},
		),
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricMutationsTotal,
				Help: "Total registry mutation attempts by action and outcome",
			},
			[]string{"action", "outcome"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.httpRequestDuration,
		m.httpRequestsTotal,
		m.httpResponseSize,
		m.mutationsTotal,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncMutation records one registry mutation attempt.
// action: the registry operation (e.g. "set_item_colors")
// outcome: "success" or "failure"
func (m *Metrics) IncMutation(action, outcome string) {
	m.mutationsTotal.WithLabelValues(action, outcome).Inc()
}

// ObserveHTTPRequest records HTTP request metrics.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, duration float64, responseSize int64) {
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": status,
	}
	m.httpRequestDuration.With(labels).Observe(duration)
	m.httpRequestsTotal.With(labels).Inc()
	m.httpResponseSize.With(labels).Observe(float64(responseSize))
}

// normalizePath converts paths with dynamic segments to route patterns to
// prevent cardinality explosion in metrics.
func normalizePath(path string) string {
	staticRoutes := map[string]bool{
		"/":            true,
		"/renderer":    true,
		"/collections": true,
		"/health":      true,
		"/ready":       true,
		"/metrics":     true,
	}
	if staticRoutes[path] {
		return path
	}

	// /addresses/{address}/colors
	if strings.HasPrefix(path, "/addresses/") {
		parts := strings.Split(path, "/")
		if len(parts) == 4 && parts[3] == "colors" {
			return "/addresses/{address}/colors"
		}
		return "/addresses/{address}"
	}

	// /collections/{collection}/items/... patterns
	if strings.HasPrefix(path, "/collections/") {
		parts := strings.Split(path, "/")
		if len(parts) >= 4 && parts[3] == "items" {
			if len(parts) == 5 && parts[4] == "colors" {
				return "/collections/{collection}/items/colors"
			}
			if len(parts) == 5 {
				return "/collections/{collection}/items/{id}"
			}
			if len(parts) == 6 && parts[5] == "affiliate" {
				return "/collections/{collection}/items/{id}/affiliate"
			}
		}
		return "/collections/{collection}"
	}

	// Fallback: return as-is so new routes are not accidentally dropped.
	return path
}

// metricsResponseWriter wraps http.ResponseWriter to capture status code and response size.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode  int
	size        int64
	wroteHeader bool
}

// WriteHeader captures the status code before writing it.
func (mrw *metricsResponseWriter) WriteHeader(code int) {
	if mrw.wroteHeader {
		return
	}
	mrw.statusCode = code
	mrw.wroteHeader = true
	mrw.ResponseWriter.WriteHeader(code)
}

// Write captures the response size and writes the data.
func (mrw *metricsResponseWriter) Write(b []byte) (int, error) {
	n, err := mrw.ResponseWriter.Write(b)
	mrw.size += int64(n)
	return n, err
}

// HTTPMetrics is a middleware that records HTTP request metrics.
// Health check endpoints are excluded to avoid cardinality issues.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" || r.URL.Path == "/ready" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			mrw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(mrw, r)

			metrics.ObserveHTTPRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(mrw.statusCode),
				time.Since(start).Seconds(),
				mrw.size,
			)
		})
	}
}
