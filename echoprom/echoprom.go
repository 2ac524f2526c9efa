// Package echoprom provides Echo middleware for Prometheus metrics.
// It records request latency and status code counts per route and serves
// the registry in the Prometheus exposition format.
package echoprom

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP collectors and the registry they live in
type Metrics struct {
	// Registry is the Prometheus registry exposed by Handler
	Registry *prometheus.Registry

	// RequestDuration measures request latency
	RequestDuration *prometheus.HistogramVec

	// RequestsTotal counts requests by route, method and status code
	RequestsTotal *prometheus.CounterVec
}

// Config holds configuration for the middleware
type Config struct {
	// Skipper defines a function to skip middleware
	Skipper func(c echo.Context) bool
}

// DefaultConfig provides default configuration
func DefaultConfig() Config {
	return Config{
		Skipper: func(c echo.Context) bool { return false },
	}
}

// New registers the HTTP collectors in reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Registry: reg,
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by status code",
			},
			[]string{"path", "method", "code"},
		),
	}
}

// Middleware returns Echo middleware which records Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return m.MiddlewareWithConfig(DefaultConfig())
}

// MiddlewareWithConfig returns Echo middleware with config
func (m *Metrics) MiddlewareWithConfig(config Config) echo.MiddlewareFunc {
	if config.Skipper == nil {
		config.Skipper = DefaultConfig().Skipper
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if config.Skipper(c) {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			// Route templates (":name") keep cardinality bounded
			path := c.Path()
			method := c.Request().Method
			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}

			m.RequestDuration.WithLabelValues(path, method).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()

			return err
		}
	}
}

// Handler serves the registry for mounting on a route such as /metrics
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(
		m.Registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))
}
