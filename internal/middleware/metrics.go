package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horaplan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horaplan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	schedulesGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "horaplan_schedules_generated_total",
			Help: "Total number of AI-generated schedules",
		},
	)

	schedulesAnalyzedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "horaplan_schedules_analyzed_total",
			Help: "Total number of AI schedule analyses",
		},
	)

	aiFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "horaplan_ai_failures_total",
			Help: "Total number of failed generative model calls",
		},
	)

	// Error metrics
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horaplan_errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type"},
	)
)

// Metrics returns a middleware that records Prometheus metrics.
func Metrics() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &metricsResponseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.status)
			path := normalizePath(r)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)

			if wrapped.status >= 400 {
				errorType := "client_error"
				if wrapped.status >= 500 {
					errorType = "server_error"
				}
				errorsTotal.WithLabelValues(errorType).Inc()
			}
		})
	}
}

type metricsResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *metricsResponseWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths to prevent cardinality explosion.
func normalizePath(r *http.Request) string {
	// Get route pattern from chi if available
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}

	// Fallback: collapse UUID segments
	segments := strings.Split(r.URL.Path, "/")
	for i, seg := range segments {
		if len(seg) == 36 && strings.Count(seg, "-") == 4 {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// IncrementSchedulesGenerated increments the generated-schedules counter.
func IncrementSchedulesGenerated() {
	schedulesGeneratedTotal.Inc()
}

// IncrementSchedulesAnalyzed increments the analyzed-schedules counter.
func IncrementSchedulesAnalyzed() {
	schedulesAnalyzedTotal.Inc()
}

// IncrementAIFailures increments the failed-model-calls counter.
func IncrementAIFailures() {
	aiFailuresTotal.Inc()
}
