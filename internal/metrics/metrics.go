// Package metrics exposes Prometheus counters for the tracking engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics is valid
// and records nothing, which keeps tests free of global registration.
type Metrics struct {
	EventsTotal            *prometheus.CounterVec
	CommentVerdictsTotal   *prometheus.CounterVec
	RemoteFailuresTotal    prometheus.Counter
	MetadataFallbacksTotal prometheus.Counter
	ProfilesGeneratedTotal *prometheus.CounterVec
	DigestsSentTotal       *prometheus.CounterVec
}

// New creates and registers the collectors once per process.
//
// Metrics:
//   - safeguard_events_total{kind,status} - ingested activity events
//   - safeguard_comment_verdicts_total{source,hidden} - comment pipeline outcomes
//   - safeguard_remote_classifier_failures_total - failed remote classifier calls
//   - safeguard_metadata_fallbacks_total - videos stored with placeholder metadata
//   - safeguard_profiles_generated_total{trigger} - narrative profiles rendered
//   - safeguard_digests_total{result} - weekly digest emails
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			EventsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "safeguard_events_total",
					Help: "Total number of ingested activity events",
				},
				[]string{"kind", "status"},
			),

			CommentVerdictsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "safeguard_comment_verdicts_total",
					Help: "Total number of comment verdicts by deciding stage",
				},
				[]string{"source", "hidden"},
			),

			RemoteFailuresTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "safeguard_remote_classifier_failures_total",
					Help: "Total number of failed or timed out remote classifier calls",
				},
			),

			MetadataFallbacksTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "safeguard_metadata_fallbacks_total",
					Help: "Total number of videos tracked with placeholder metadata",
				},
			),

			ProfilesGeneratedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "safeguard_profiles_generated_total",
					Help: "Total number of behavior profiles rendered",
				},
				[]string{"trigger"}, // "threshold" or "manual"
			),

			DigestsSentTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "safeguard_digests_total",
					Help: "Total number of weekly digest emails attempted",
				},
				[]string{"result"},
			),
		}
	})

	return globalMetrics
}

// RecordEvent counts an ingested event by kind and outcome
func (m *Metrics) RecordEvent(kind, status string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(kind, status).Inc()
}

// RecordCommentVerdict counts a comment verdict
func (m *Metrics) RecordCommentVerdict(source string, hidden bool) {
	if m == nil {
		return
	}
	label := "false"
	if hidden {
		label = "true"
	}
	m.CommentVerdictsTotal.WithLabelValues(source, label).Inc()
}

// RecordRemoteFailure counts a failed remote classifier call
func (m *Metrics) RecordRemoteFailure() {
	if m == nil {
		return
	}
	m.RemoteFailuresTotal.Inc()
}

// RecordMetadataFallback counts a video stored with placeholder metadata
func (m *Metrics) RecordMetadataFallback() {
	if m == nil {
		return
	}
	m.MetadataFallbacksTotal.Inc()
}

// RecordProfileGenerated counts a rendered behavior profile
func (m *Metrics) RecordProfileGenerated(trigger string) {
	if m == nil {
		return
	}
	m.ProfilesGeneratedTotal.WithLabelValues(trigger).Inc()
}

// RecordDigest counts a weekly digest email by result
func (m *Metrics) RecordDigest(result string) {
	if m == nil {
		return
	}
	m.DigestsSentTotal.WithLabelValues(result).Inc()
}
