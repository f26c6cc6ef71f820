package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
)

// Collectors are registered once on the default registry
var (
	AttachmentTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claims_attachment_transfers_total",
		Help: "Attachment transfers into case documents, by mode (copy, move) and outcome",
	}, []string{"mode", "outcome"})

	CleanupFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "claims_cleanup_failures_total",
		Help: "Best-effort byte or row deletions that failed and need manual follow-up",
	}, []string{"source"})

	CaseDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claims_case_deletes_total",
		Help: "Cases deleted with their full aggregate",
	})

	UpsertConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claims_case_upsert_conflicts_total",
		Help: "Case upserts rejected because the version token was stale",
	})

	UpsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "claims_case_upsert_duration_seconds",
		Help:    "Duration of full case graph upserts",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	})

	MessageAssignments = promauto.NewCounter(prometheus.CounterOpts{
		Name: "claims_message_assignments_total",
		Help: "New message-to-case assignment edges created",
	})
)

// ObserveUpsert records the duration of a case upsert.
// Call with time.Now() at the start of the operation.
func ObserveUpsert(start time.Time) {
	UpsertDuration.Observe(time.Since(start).Seconds())
}

// RecordTransfer counts one transfer attempt
func RecordTransfer(move bool, outcome string) {
	mode := "copy"
	if move {
		mode = "move"
	}
	AttachmentTransfers.WithLabelValues(mode, outcome).Inc()
}

// RecordCleanupFailure counts one failed best-effort deletion
func RecordCleanupFailure(source string) {
	CleanupFailures.WithLabelValues(source).Inc()
}
