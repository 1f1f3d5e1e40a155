package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// DBMetrics tracks query latency and failures for the storage adapters.
type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec
}

// NewDBMetrics creates and registers storage metrics on the given registry.
func NewDBMetrics(reg prometheus.Registerer) *DBMetrics {
	m := &DBMetrics{
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries in seconds, by statement kind.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"query"}),
		QueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of failed database queries, by statement kind.",
		}, []string{"query"}),
	}

	reg.MustRegister(m.QueryDuration, m.QueryErrors)
	return m
}

// Observe records one query. Safe on a nil receiver.
func (m *DBMetrics) Observe(sql string, seconds float64, err error) {
	if m == nil {
		return
	}
	kind := QueryKind(sql)
	m.QueryDuration.WithLabelValues(kind).Observe(seconds)
	if err != nil {
		m.QueryErrors.WithLabelValues(kind).Inc()
	}
}

// QueryKind reduces SQL to its leading keyword to keep label cardinality low.
func QueryKind(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "unknown"
	}
	kind := strings.ToUpper(fields[0])
	switch kind {
	case "SELECT", "INSERT", "UPDATE", "DELETE", "WITH", "BEGIN", "COMMIT", "ROLLBACK":
		return kind
	default:
		return "OTHER"
	}
}
