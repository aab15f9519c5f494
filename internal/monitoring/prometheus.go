package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry             *prometheus.Registry
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec
	apiErrorsTotal       *prometheus.CounterVec
	factorEvaluations    *prometheus.CounterVec
	evaluationDuration   *prometheus.HistogramVec
	klineLoads           *prometheus.CounterVec
	registeredFactors    prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
			[]string{"method", "endpoint"},
		),
		apiErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"endpoint", "error_type"},
		),
		factorEvaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factor_evaluations_total",
				Help: "Total number of factor evaluations",
			},
			[]string{"factor", "status"},
		),
		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "factor_evaluation_duration_seconds",
				Help:    "Factor evaluation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"factor"},
		),
		klineLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kline_loads_total",
				Help: "Total number of kline data loads",
			},
			[]string{"symbol", "status"},
		),
		registeredFactors: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "registered_factors",
				Help: "Number of factors in the registry",
			},
		),
	}

	// Each Metrics instance carries its own registry so servers can be
	// constructed repeatedly without duplicate registration panics
	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpRequestsInFlight,
		m.apiErrorsTotal,
		m.factorEvaluations,
		m.evaluationDuration,
		m.klineLoads,
		m.registeredFactors,
	)

	return m
}

// MetricsMiddleware creates a Prometheus metrics middleware
func (m *Metrics) MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		// Track in-flight requests
		m.httpRequestsInFlight.WithLabelValues(c.Request.Method, path).Inc()
		defer m.httpRequestsInFlight.WithLabelValues(c.Request.Method, path).Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)

		if c.Writer.Status() >= 400 {
			errorType := "client_error"
			if c.Writer.Status() >= 500 {
				errorType = "server_error"
			}
			m.apiErrorsTotal.WithLabelValues(path, errorType).Inc()
		}
	}
}

// Handler returns the Prometheus scrape handler for this instance
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordEvaluation records a factor evaluation outcome
func (m *Metrics) RecordEvaluation(factor, status string, duration time.Duration) {
	m.factorEvaluations.WithLabelValues(factor, status).Inc()
	m.evaluationDuration.WithLabelValues(factor).Observe(duration.Seconds())
}

// RecordKlineLoad records a kline data load
func (m *Metrics) RecordKlineLoad(symbol, status string) {
	m.klineLoads.WithLabelValues(symbol, status).Inc()
}

// SetRegisteredFactors sets the registry size gauge
func (m *Metrics) SetRegisteredFactors(count int) {
	m.registeredFactors.Set(float64(count))
}
