package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for audit event emission.
type Metrics struct {
	// Events accepted for persistence, by category
	EventsEmitted *prometheus.CounterVec

	// Store writes that failed
	EmitFailures prometheus.Counter

	// Events dropped because the async buffer was full
	EventsDropped prometheus.Counter
}

// New creates a new Metrics instance with all audit publisher metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimcheck_audit_events_emitted_total",
			Help: "Total audit events persisted, by category",
		}, []string{"category"}),

		EmitFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimcheck_audit_emit_failures_total",
			Help: "Total audit events that failed to persist",
		}),

		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimcheck_audit_events_dropped_total",
			Help: "Total audit events dropped due to a full async buffer",
		}),
	}
}

// IncrementEmitted records a persisted event.
func (m *Metrics) IncrementEmitted(category string) {
	if m != nil {
		m.EventsEmitted.WithLabelValues(category).Inc()
	}
}

// IncrementFailures records a failed store write.
func (m *Metrics) IncrementFailures() {
	if m != nil {
		m.EmitFailures.Inc()
	}
}

// IncrementDropped records a dropped event.
func (m *Metrics) IncrementDropped() {
	if m != nil {
		m.EventsDropped.Inc()
	}
}
