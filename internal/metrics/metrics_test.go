package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewIsSingleton(t *testing.T) {
	assert.Same(t, New(), New())
}

func TestRecordersIncrement(t *testing.T) {
	m := New()

	before := testutil.ToFloat64(m.EventsTotal.WithLabelValues("video-view", "success"))
	m.RecordEvent("video-view", "success")
	assert.Equal(t, before+1, testutil.ToFloat64(m.EventsTotal.WithLabelValues("video-view", "success")))

	before = testutil.ToFloat64(m.CommentVerdictsTotal.WithLabelValues("keyword", "true"))
	m.RecordCommentVerdict("keyword", true)
	assert.Equal(t, before+1, testutil.ToFloat64(m.CommentVerdictsTotal.WithLabelValues("keyword", "true")))

	before = testutil.ToFloat64(m.RemoteFailuresTotal)
	m.RecordRemoteFailure()
	assert.Equal(t, before+1, testutil.ToFloat64(m.RemoteFailuresTotal))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEvent("video-view", "success")
		m.RecordCommentVerdict("default", false)
		m.RecordRemoteFailure()
		m.RecordMetadataFallback()
		m.RecordProfileGenerated("threshold")
		m.RecordDigest("sent")
	})
}
