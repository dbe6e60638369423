// Package metrics holds the Prometheus collectors for the triage core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QueueEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supportdesk_queue_enqueued_total",
		Help: "Tickets placed in a vendor queue",
	})

	QueueDequeued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supportdesk_queue_dequeued_total",
		Help: "Queue entries removed on assignment",
	})

	ContextMerges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportdesk_context_merges_total",
		Help: "Context summary merges by result (created, merged, patched, failed)",
	}, []string{"result"})

	ContentAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportdesk_content_appended_total",
		Help: "Timeline entries appended by source",
	}, []string{"source"})

	AnalysisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "supportdesk_analysis_runs_total",
		Help: "Analysis collaborator invocations by result (ok, error, skipped)",
	}, []string{"result"})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "supportdesk_analysis_duration_seconds",
		Help:    "Latency of the analysis collaborator",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	})

	WebhookFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "supportdesk_webhook_failures_total",
		Help: "Webhook deliveries that failed",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
