package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the gateway and
// the upstream calls it makes on behalf of dashboard clients.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	attemptsTotal    *prometheus.CounterVec
	attemptFailures  *prometheus.CounterVec
	retriesTotal     *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
	cacheRequests    *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "upstream_request_duration_seconds",
		Help:    "Duration of upstream API requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	upstreamTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upstream_requests_total",
		Help: "Total number of upstream API requests",
	}, []string{"method", "endpoint", "status"})

	attemptsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "async_operation_attempts_total",
		Help: "Attempts made by retrying operations",
	}, []string{"operation"})

	attemptFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "async_operation_attempt_failures_total",
		Help: "Failed attempts of retrying operations",
	}, []string{"operation"})

	retriesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "async_operation_retries_total",
		Help: "Attempts beyond the first made by retrying operations",
	}, []string{"operation"})

	rateLimited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"limiter"})

	cacheRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_requests_total",
		Help: "Total number of cache lookups",
	}, []string{"result"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "active_page_sessions",
		Help: "Sessions holding page controller state",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamDuration, upstreamTotal,
		attemptsTotal, attemptFailures, retriesTotal, rateLimited, cacheRequests, activeSessions, goroutines)

	return &MetricsService{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		upstreamDuration: upstreamDuration,
		upstreamTotal:    upstreamTotal,
		attemptsTotal:    attemptsTotal,
		attemptFailures:  attemptFailures,
		retriesTotal:     retriesTotal,
		rateLimited:      rateLimited,
		cacheRequests:    cacheRequests,
		activeSessions:   activeSessions,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry, mostly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records gateway request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveUpstreamRequest records one upstream round trip. status 0 means no
// response was received.
func (m *MetricsService) ObserveUpstreamRequest(method, endpoint string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := "error"
	if status > 0 {
		labelStatus = fmt.Sprintf("%d", status)
	}
	m.upstreamDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.upstreamTotal.WithLabelValues(method, endpoint, labelStatus).Inc()
}

// ObserveAttempt counts attempts of a retrying operation.
func (m *MetricsService) ObserveAttempt(operation string, attempt int, err error) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(operation).Inc()
	if attempt > 1 {
		m.retriesTotal.WithLabelValues(operation).Inc()
	}
	if err != nil {
		m.attemptFailures.WithLabelValues(operation).Inc()
	}
}

// ObserveRateLimited counts a rejected request.
func (m *MetricsService) ObserveRateLimited(limiter string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(limiter).Inc()
}

// SetActiveSessions publishes the number of sessions with page state.
func (m *MetricsService) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// ObserveCache records a cache lookup.
func (m *MetricsService) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheRequests.WithLabelValues(result).Inc()
}
