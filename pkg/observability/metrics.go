package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewMetrics returns a new set of Prometheus metrics registered on reg.
// A nil reg registers on the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"code", "method", "path"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of latencies for HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"code", "method", "path"},
		),
		SignupAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signup_attempts_total",
				Help: "Sign-up attempts by outcome.",
			},
			[]string{"outcome"},
		),
		ProviderDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signup_provider_duration_seconds",
				Help:    "Latency of account creation calls to the identity provider.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.SignupAttempts, m.ProviderDuration)
	return m
}

// Metrics holds the Prometheus metrics.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	SignupAttempts   *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
}

// ObserveSignup counts one sign-up attempt. Safe on a nil receiver.
func (m *Metrics) ObserveSignup(outcome string) {
	if m == nil {
		return
	}
	m.SignupAttempts.WithLabelValues(outcome).Inc()
}

// ObserveProvider records the latency of one provider call. Safe on a nil receiver.
func (m *Metrics) ObserveProvider(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// PrometheusMiddleware returns a Gin middleware that records Prometheus metrics for HTTP requests.
func PrometheusMiddleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next() // Process request

		statusCode := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method

		metrics.RequestsTotal.WithLabelValues(statusCode, method, path).Inc()
		metrics.RequestDuration.WithLabelValues(statusCode, method, path).Observe(time.Since(start).Seconds())
	}
}

// PrometheusHandler returns an http.Handler for the Prometheus metrics in g.
// A nil g serves the default gatherer.
func PrometheusHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
