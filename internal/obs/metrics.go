package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Shared HTTP metrics.
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ready = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "service_ready",
		Help: "1 when the readiness probe last passed.",
	})

	loginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	resetRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_password_reset_requests_total",
		Help: "Password reset tickets issued.",
	})

	resetCompletionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_password_reset_completions_total",
		Help: "Password resets completed.",
	})
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration,
		ready, loginsTotal, resetRequestsTotal, resetCompletionsTotal)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetReady records the latest readiness probe result.
func SetReady(ok bool) {
	if ok {
		ready.Set(1)
	} else {
		ready.Set(0)
	}
}

// IncLogin counts a login attempt.
func IncLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	loginsTotal.WithLabelValues(outcome).Inc()
}

// IncResetRequest counts an issued reset ticket.
func IncResetRequest() { resetRequestsTotal.Inc() }

// IncResetComplete counts a completed password reset.
func IncResetComplete() { resetCompletionsTotal.Inc() }

// Instrument wraps a handler with RPS/latency/in-flight measurements.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource IDs so metric label cardinality stays
// bounded.
func CanonicalPath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	for _, prefix := range []string{"/api/events/", "/api/users/"} {
		rest, found := strings.CutPrefix(path, prefix)
		if !found || rest == "" {
			continue
		}
		parts := strings.Split(strings.Trim(rest, "/"), "/")
		switch len(parts) {
		case 1:
			return prefix + ":id"
		case 2:
			return prefix + ":id/" + parts[1]
		}
	}
	if strings.HasPrefix(path, "/dashboard/") {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) >= 2 {
			return "/dashboard/" + parts[1]
		}
	}
	return path
}

// statusWriter is a local copy so the wrapper can observe the code.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
