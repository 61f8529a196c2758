package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeNoPass = "no_pass"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattracker_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sattracker_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	computeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattracker_compute_total",
			Help: "Observation state computations by outcome.",
		},
		[]string{"outcome"},
	)

	computeDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sattracker_compute_duration_seconds",
			Help:    "Time to propagate a target and derive its look angles.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		},
	)

	passSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattracker_pass_search_total",
			Help: "Next-pass searches by outcome.",
		},
		[]string{"outcome"},
	)

	passSearchDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sattracker_pass_search_duration_seconds",
			Help:    "Time to locate the next pass window.",
			Buckets: prometheus.ExponentialBuckets(1e-3, 4, 8),
		},
	)

	passTablesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattracker_pass_tables_total",
			Help: "Pass tables sampled.",
		},
	)

	tleCatalogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattracker_tle_catalog_size",
			Help: "Number of element sets in the loaded catalog.",
		},
	)

	tleFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattracker_tle_fetch_total",
			Help: "Catalog fetch attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		computeTotal,
		computeDurationSeconds,
		passSearchTotal,
		passSearchDurationSeconds,
		passTablesTotal,
		tleCatalogSize,
		tleFetchTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCompute records one observation state computation.
func RecordCompute(d time.Duration, err error) {
	computeTotal.WithLabelValues(outcome(err)).Inc()
	computeDurationSeconds.Observe(d.Seconds())
}

// RecordPassSearch records one next-pass search. outcome is one of the
// Outcome constants.
func RecordPassSearch(d time.Duration, outcome string) {
	passSearchTotal.WithLabelValues(outcome).Inc()
	passSearchDurationSeconds.Observe(d.Seconds())
}

// RecordPassTable counts a sampled pass table.
func RecordPassTable() {
	passTablesTotal.Inc()
}

// SetCatalogSize publishes the number of loaded element sets.
func SetCatalogSize(n int) {
	tleCatalogSize.Set(float64(n))
}

// RecordFetch records one catalog fetch attempt.
func RecordFetch(err error) {
	tleFetchTotal.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// knownRoutes are the exact paths served by the API.
var knownRoutes = map[string]bool{
	"/healthz":            true,
	"/readyz":             true,
	"/metrics":            true,
	"/api/v1/track":       true,
	"/api/v1/passes/next": true,
	"/api/v1/target":      true,
}

// normalizeRoute maps a request path to a bounded label set so scanners and
// typos do not grow the series count.
func normalizeRoute(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
