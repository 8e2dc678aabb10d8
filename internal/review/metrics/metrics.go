package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the review module. All methods are
// nil-safe so services can run without metrics in tests.
type Metrics struct {
	// Sessions opened via receipt intake
	SessionsCreated prometheus.Counter

	// Validation cycles by outcome
	Validations *prometheus.CounterVec

	// Explanations by trigger (auto/manual) and outcome
	Explanations *prometheus.CounterVec

	// Submission attempts by store status
	Submissions *prometheus.CounterVec

	// Full validation cycle latency including the auto-chained explanation
	ValidationDuration prometheus.Histogram
}

// New creates a Metrics instance with all review module metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "claimcheck_review_sessions_created_total",
			Help: "Total review sessions created from receipt intake",
		}),

		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimcheck_review_validations_total",
			Help: "Total validation cycles by outcome",
		}, []string{"outcome"}), // outcome: lowercase verdict or "error"

		Explanations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimcheck_review_explanations_total",
			Help: "Total explanation calls by trigger and outcome",
		}, []string{"trigger", "outcome"}), // trigger: "auto", "manual"

		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "claimcheck_review_submissions_total",
			Help: "Total submission attempts by store status",
		}, []string{"status"}), // status: "submitted", "blocked", "error"

		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "claimcheck_review_validation_duration_seconds",
			Help:    "Duration of the validation cycle including the chained explanation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementSessionCreated records a new review session.
func (m *Metrics) IncrementSessionCreated() {
	if m != nil {
		m.SessionsCreated.Inc()
	}
}

// IncrementValidation records a validation cycle outcome.
func (m *Metrics) IncrementValidation(outcome string) {
	if m != nil {
		m.Validations.WithLabelValues(outcome).Inc()
	}
}

// IncrementExplanation records an explanation call.
func (m *Metrics) IncrementExplanation(trigger, outcome string) {
	if m != nil {
		m.Explanations.WithLabelValues(trigger, outcome).Inc()
	}
}

// IncrementSubmission records a submission attempt by resulting status.
func (m *Metrics) IncrementSubmission(status string) {
	if m != nil {
		m.Submissions.WithLabelValues(status).Inc()
	}
}

// ObserveValidationDuration records the total validation cycle duration.
func (m *Metrics) ObserveValidationDuration(d time.Duration) {
	if m != nil {
		m.ValidationDuration.Observe(d.Seconds())
	}
}
