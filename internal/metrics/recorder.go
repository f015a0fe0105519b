package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// PageOutcome labels what happened to one HTML file during a build.
type PageOutcome string

const (
	PageChanged   PageOutcome = "changed"
	PageUnchanged PageOutcome = "unchanged"
	PageFailed    PageOutcome = "failed"
)

// Recorder is the set of observability hooks used by the pipeline, the
// auditor and the submitters.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRunDuration(command string, d time.Duration)
	IncPage(outcome PageOutcome)
	IncLinkCheck(broken bool)
	IncFinding(kind string)
	SetAuditScore(score int)
	IncSubmission(endpoint string, success bool)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)   {}
func (NoopRecorder) IncPage(PageOutcome)                        {}
func (NoopRecorder) IncLinkCheck(bool)                          {}
func (NoopRecorder) IncFinding(string)                          {}
func (NoopRecorder) SetAuditScore(int)                          {}
func (NoopRecorder) IncSubmission(string, bool)                 {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
