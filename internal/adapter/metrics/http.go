package metrics

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// outcomeKey is the echo context key holding the wire code of an error
// response. Domain errors are answered with 200, so the status code alone
// cannot tell a started session from a forbidden one.
const outcomeKey = "metrics.outcome"

const (
	outcomeOK      = "ok"
	outcomeError   = "error"
	routeUnmatched = "unmatched"
	httpSubsystem  = "http"
)

// HTTPMetrics measures the session API by route template and outcome.
type HTTPMetrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec
	ErrorsTotal     *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers HTTP metrics on the given registry.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: httpSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Latency of session API requests by route template.",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: httpSubsystem,
			Name:      "requests_total",
			Help:      "Session API requests by route template and outcome (ok or the error code).",
		}, []string{"method", "route", "outcome"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: httpSubsystem,
			Name:      "errors_total",
			Help:      "Structured error responses by error code.",
		}, []string{"code"}),
	}

	reg.MustRegister(m.RequestDuration, m.RequestsTotal, m.ErrorsTotal)
	return m
}

// RecordError counts one error response and tags the request with its code
// so the request counter reports it as the outcome. Safe on a nil receiver.
func (m *HTTPMetrics) RecordError(c echo.Context, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(code).Inc()
	c.Set(outcomeKey, code)
}

// Middleware measures every request except /metrics and the health probes.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "/metrics" || strings.HasPrefix(route, "/health") {
				return next(c)
			}
			if route == "" || route == "/" {
				route = routeUnmatched
			}

			began := time.Now()
			err := next(c)

			outcome := outcomeOK
			if code, ok := c.Get(outcomeKey).(string); ok {
				outcome = code
			} else if err != nil {
				outcome = outcomeError
			}

			method := c.Request().Method
			m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(began).Seconds())
			m.RequestsTotal.WithLabelValues(method, route, outcome).Inc()
			return err
		}
	}
}
