// Package metrics provides Prometheus metrics for the CLIcafe shell and
// callback server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Shell command metrics
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_commands_total",
			Help: "Total number of shell commands executed",
		},
		[]string{"verb", "outcome"},
	)

	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clicafe_command_duration_seconds",
			Help:    "Shell command duration in seconds, including gateway calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)

	// Gateway metrics
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_gateway_requests_total",
			Help: "Total number of requests sent to the CLIcafe API",
		},
		[]string{"endpoint", "status"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clicafe_gateway_request_duration_seconds",
			Help:    "CLIcafe API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Auth metrics
	tokenRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_token_refresh_total",
			Help: "Total access token refresh attempts",
		},
		[]string{"result"},
	)

	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_login_attempts_total",
			Help: "Total login attempts",
		},
		[]string{"result"},
	)

	// Catalog cache metrics
	catalogCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_catalog_cache_total",
			Help: "Catalog cache lookups",
		},
		[]string{"result"},
	)

	// Payment callback metrics
	paymentCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_payment_callbacks_total",
			Help: "Payment provider callbacks received",
		},
		[]string{"outcome", "result"},
	)

	// HTTP request metrics (callback server)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clicafe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clicafe_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records one dispatched shell command.
func RecordCommand(verb, outcome string, duration time.Duration) {
	commandsTotal.WithLabelValues(verb, outcome).Inc()
	commandDuration.WithLabelValues(verb).Observe(duration.Seconds())
}

// RecordGatewayRequest records a request to the API. status is the HTTP
// status code, or 0 when the server could not be reached.
func RecordGatewayRequest(endpoint string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	gatewayRequestsTotal.WithLabelValues(endpoint, label).Inc()
	gatewayRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordTokenRefresh records a refresh attempt.
func RecordTokenRefresh(success bool) {
	tokenRefreshTotal.WithLabelValues(result(success)).Inc()
}

// RecordLoginAttempt records a login attempt.
func RecordLoginAttempt(success bool) {
	loginAttemptsTotal.WithLabelValues(result(success)).Inc()
}

// RecordCatalogCache records a catalog cache hit or miss.
func RecordCatalogCache(hit bool) {
	if hit {
		catalogCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	catalogCacheTotal.WithLabelValues("miss").Inc()
}

// RecordPaymentCallback records a provider callback and whether it was
// reported to the API.
func RecordPaymentCallback(outcome string, reported bool) {
	paymentCallbacksTotal.WithLabelValues(outcome, result(reported)).Inc()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
