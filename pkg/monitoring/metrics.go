package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code", "service"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	// Upstream fetch metrics
	upstreamFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetches_total",
			Help: "Total number of upstream fetch attempts",
		},
		[]string{"resource", "status", "service"},
	)

	upstreamFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_fetch_duration_seconds",
			Help:    "Duration of upstream fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"resource", "service"},
	)

	// Activity cache metrics
	activityRefreshSkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_refresh_skips_total",
			Help: "Total number of activity refreshes skipped by the throttle or in-flight guard",
		},
		[]string{"reason", "service"},
	)

	activityCacheRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "activity_cache_records",
			Help: "Number of activity-log records currently cached",
		},
		[]string{"service"},
	)

	// Aggregation metrics
	aggregationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_pass_duration_seconds",
			Help:    "Duration of feed and statistics aggregation passes in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"service"},
	)

	// Authentication metrics
	authAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"method", "status", "service"},
	)

	// Rate limit metrics
	rateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint", "service"},
	)

	// System metrics
	systemErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "system_errors_total",
			Help: "Total number of system errors",
		},
		[]string{"error_type", "service", "component"},
	)
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	serviceName string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(serviceName string) *MetricsCollector {
	// Register metrics
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		upstreamFetchesTotal,
		upstreamFetchDuration,
		activityRefreshSkipsTotal,
		activityCacheRecords,
		aggregationDuration,
		authAttemptsTotal,
		rateLimitRejectionsTotal,
		systemErrors,
	)

	return &MetricsCollector{
		serviceName: serviceName,
	}
}

// RecordHTTPRequest records HTTP request metrics
func (m *MetricsCollector) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, endpoint, statusCode, m.serviceName).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, m.serviceName).Observe(duration.Seconds())
}

// RecordUpstreamFetch records upstream fetch metrics
func (m *MetricsCollector) RecordUpstreamFetch(resource, status string, duration time.Duration) {
	upstreamFetchesTotal.WithLabelValues(resource, status, m.serviceName).Inc()
	upstreamFetchDuration.WithLabelValues(resource, m.serviceName).Observe(duration.Seconds())
}

// RecordRefreshSkip records an activity refresh suppressed by a guard
func (m *MetricsCollector) RecordRefreshSkip(reason string) {
	activityRefreshSkipsTotal.WithLabelValues(reason, m.serviceName).Inc()
}

// RecordCacheSize records the current activity cache size
func (m *MetricsCollector) RecordCacheSize(records int) {
	activityCacheRecords.WithLabelValues(m.serviceName).Set(float64(records))
}

// RecordAggregationPass records aggregation pass metrics
func (m *MetricsCollector) RecordAggregationPass(duration time.Duration) {
	aggregationDuration.WithLabelValues(m.serviceName).Observe(duration.Seconds())
}

// RecordAuthAttempt records authentication attempt metrics
func (m *MetricsCollector) RecordAuthAttempt(method, status string) {
	authAttemptsTotal.WithLabelValues(method, status, m.serviceName).Inc()
}

// RecordRateLimitRejection records a rate limiter rejection
func (m *MetricsCollector) RecordRateLimitRejection(endpoint string) {
	rateLimitRejectionsTotal.WithLabelValues(endpoint, m.serviceName).Inc()
}

// RecordSystemError records system error metrics
func (m *MetricsCollector) RecordSystemError(errorType, component string) {
	systemErrors.WithLabelValues(errorType, m.serviceName, component).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}

// HTTPMiddleware creates middleware for HTTP request metrics
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		statusCode := strconv.Itoa(wrapper.statusCode)

		m.RecordHTTPRequest(r.Method, r.URL.Path, statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
