package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	assert.NotPanics(t, func() {
		r.ObserveStageDuration("x", time.Second)
		r.IncStageResult("x", ResultFatal)
		r.ObserveRunDuration("audit", time.Second)
		r.IncPage(PageFailed)
		r.IncLinkCheck(false)
		r.IncFinding("orphan")
		r.SetAuditScore(0)
		r.IncSubmission("baidu", false)
	})
}

func TestOrNoop(t *testing.T) {
	assert.Equal(t, NoopRecorder{}, OrNoop(nil))
	pr := NewPrometheusRecorder(nil)
	assert.Same(t, pr, OrNoop(pr))
}
