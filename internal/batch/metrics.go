package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Document outcomes, used as the outcome label of docket_documents_total.
const (
	OutcomeArchived         = "archived"
	OutcomeDeduplicated     = "deduplicated"
	OutcomeSkippedInvalid   = "skipped_invalid"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeFailed           = "failed"
	OutcomeRenamed          = "renamed"
)

// Metrics holds the runner's prometheus collectors.
type Metrics struct {
	documents *prometheus.CounterVec
	reviews   *prometheus.CounterVec
	runs      *prometheus.CounterVec
	duration  prometheus.Histogram
}

// NewMetrics registers the collectors with reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		documents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docket_documents_total",
				Help: "Documents handled by the batch runner, by outcome.",
			},
			[]string{"outcome"},
		),
		reviews: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docket_review_entries_total",
				Help: "Archived documents flagged for manual review, by reason.",
			},
			[]string{"reason"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docket_runs_total",
				Help: "Batch runs, by status.",
			},
			[]string{"status"},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docket_run_duration_seconds",
			Help:    "Wall time of batch runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *Metrics) document(outcome string) {
	if m != nil {
		m.documents.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) review(reason string) {
	if m != nil {
		m.reviews.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) run(status string, seconds float64) {
	if m != nil {
		m.runs.WithLabelValues(status).Inc()
		m.duration.Observe(seconds)
	}
}
