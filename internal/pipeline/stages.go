package pipeline

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/sitekeeper/internal/htmldoc"
	"git.home.luguber.info/inful/sitekeeper/internal/links"
)

// Stage is one editing pass over a single page.
type Stage func(ctx context.Context, ps *PageState) error

// StageName is a strongly-typed identifier for a build stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageRewriteLinks    StageName = "rewrite_links"
	StageSyncLayout      StageName = "sync_layout"
	StageReorganizeHead  StageName = "reorganize_head"
	StageBreadcrumbs     StageName = "breadcrumbs"
	StageRecommendations StageName = "recommendations"
	StageMobileBar       StageName = "mobile_bar"
)

// AllStages lists every stage name in execution order.
var AllStages = []StageName{
	StageRewriteLinks,
	StageSyncLayout,
	StageReorganizeHead,
	StageBreadcrumbs,
	StageRecommendations,
	StageMobileBar,
}

// StageErrorKind classifies the outcome of a stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // page is abandoned
	StageErrorWarning  StageErrorKind = "warning"  // recorded, page continues
	StageErrorCanceled StageErrorKind = "canceled" // context cancellation
)

// StageError carries the stage and kind of a failure.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func NewFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func NewWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func NewCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult captures the outcome of one stage on one page.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Stages is a fluent builder for ordered stage definitions.
type Stages struct{ Defs []StageDef }

func NewStages() *Stages { return &Stages{Defs: make([]StageDef, 0, len(AllStages))} }

// Add appends a stage unconditionally.
func (s *Stages) Add(name StageName, fn Stage) *Stages {
	s.Defs = append(s.Defs, StageDef{Name: name, Fn: fn})
	return s
}

// AddIf appends a stage only if cond is true.
func (s *Stages) AddIf(cond bool, name StageName, fn Stage) *Stages {
	if cond {
		s.Add(name, fn)
	}
	return s
}

// Build returns a copy of the stage definitions.
func (s *Stages) Build() []StageDef {
	out := make([]StageDef, len(s.Defs))
	copy(out, s.Defs)
	return out
}

// PageState is the mutable state threaded through the stages of one page.
type PageState struct {
	Page     *htmldoc.Page
	Links    links.Stats
	Warnings []*StageError
	// Applied records which optional stages changed the page.
	Applied map[StageName]bool
}

func newPageState(p *htmldoc.Page) *PageState {
	return &PageState{Page: p, Applied: make(map[StageName]bool)}
}
