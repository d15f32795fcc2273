package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "driftboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "driftboard",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Drift lifecycle metrics
	driftsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "drift",
			Name:      "created_total",
			Help:      "Total number of drifts created",
		},
		[]string{"severity", "resource_type"},
	)

	driftTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "drift",
			Name:      "transitions_total",
			Help:      "Total number of completed drift status transitions",
		},
		[]string{"to"},
	)

	duplicatesSuppressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "drift",
			Name:      "duplicates_suppressed_total",
			Help:      "Total number of drift creations rejected by duplicate suppression",
		},
	)

	alertsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "alert",
			Name:      "created_total",
			Help:      "Total number of alerts created",
		},
		[]string{"type"},
	)

	auditFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "audit",
			Name:      "write_failures_total",
			Help:      "Total number of swallowed audit log write failures",
		},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "driftboard",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Total number of lifecycle events dropped by a saturated sink",
		},
	)
)

// DriftCreated records a successful drift creation.
func DriftCreated(severity, resourceType string) {
	driftsCreatedTotal.WithLabelValues(severity, resourceType).Inc()
}

// DriftTransition records a completed status transition.
func DriftTransition(to string) {
	driftTransitionsTotal.WithLabelValues(to).Inc()
}

// DuplicateSuppressed records a creation rejected as a near-duplicate.
func DuplicateSuppressed() {
	duplicatesSuppressedTotal.Inc()
}

// AlertCreated records an alert creation.
func AlertCreated(alertType string) {
	alertsCreatedTotal.WithLabelValues(alertType).Inc()
}

// AuditWriteFailed records a swallowed audit store failure.
func AuditWriteFailed() {
	auditFailuresTotal.Inc()
}

// EventDropped records a lifecycle event dropped by the sink.
func EventDropped() {
	eventsDroppedTotal.Inc()
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware instruments HTTP requests with count, duration and
// in-flight gauges, labeling by the chi route pattern so path
// parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		status := strconv.Itoa(sw.status)
		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so streaming responses keep
// working behind the middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
