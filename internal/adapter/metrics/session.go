package metrics

import "github.com/prometheus/client_golang/prometheus"

// SessionMetrics counts session and item lifecycle events. It satisfies
// app.Recorder.
type SessionMetrics struct {
	Sessions *prometheus.CounterVec
	Items    *prometheus.CounterVec
}

// NewSessionMetrics creates and registers lifecycle metrics on the given registry.
func NewSessionMetrics(reg prometheus.Registerer) *SessionMetrics {
	m := &SessionMetrics{
		Sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of session lifecycle events, by event.",
		}, []string{"event"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_total",
			Help:      "Total number of item lifecycle events, by event.",
		}, []string{"event"}),
	}

	reg.MustRegister(m.Sessions, m.Items)
	return m
}

func (m *SessionMetrics) SessionCreated() { m.Sessions.WithLabelValues("created").Inc() }
func (m *SessionMetrics) SessionStarted() { m.Sessions.WithLabelValues("started").Inc() }
func (m *SessionMetrics) SessionDeleted() { m.Sessions.WithLabelValues("deleted").Inc() }
func (m *SessionMetrics) ItemAdded()      { m.Items.WithLabelValues("added").Inc() }
func (m *SessionMetrics) ItemDeleted()    { m.Items.WithLabelValues("deleted").Inc() }
