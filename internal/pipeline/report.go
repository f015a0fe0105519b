package pipeline

import (
	"time"
)

// BuildOutcome is the final result of a build run.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// PageIssue is a warning or failure attached to one file.
type PageIssue struct {
	File  string
	Stage StageName
	Kind  StageErrorKind
	Err   error
}

// Report summarizes one build run.
type Report struct {
	Start     time.Time
	End       time.Time
	DryRun    bool
	Pages     int
	Changed   []string // files rewritten (or that would be, in dry-run mode)
	Unchanged int
	Failed    int
	Rewritten int // hrefs replaced across all pages
	Secured   int // external anchors that gained rel tokens
	Warnings  []PageIssue
	Errors    []PageIssue
	Outcome   BuildOutcome
}

func newReport(dryRun bool) *Report {
	return &Report{Start: time.Now(), DryRun: dryRun}
}

func (r *Report) addIssue(file string, se *StageError) {
	issue := PageIssue{File: file, Stage: se.Stage, Kind: se.Kind, Err: se.Err}
	if se.Kind == StageErrorWarning {
		r.Warnings = append(r.Warnings, issue)
		return
	}
	r.Errors = append(r.Errors, issue)
}

// finish stamps the end time and derives the outcome.
func (r *Report) finish(canceled bool) {
	r.End = time.Now()
	switch {
	case canceled:
		r.Outcome = OutcomeCanceled
	case r.Failed > 0:
		r.Outcome = OutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = OutcomeWarning
	default:
		r.Outcome = OutcomeSuccess
	}
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration { return r.End.Sub(r.Start) }
