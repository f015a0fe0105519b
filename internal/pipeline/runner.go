package pipeline

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/sitekeeper/internal/metrics"
)

// classify maps a stage's return value to a result. Plain errors are fatal.
func classify(name StageName, err error) (StageResult, *StageError) {
	if err == nil {
		return StageResultSuccess, nil
	}
	var se *StageError
	if !errors.As(err, &se) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			se = NewCanceledStageError(name, err)
		} else {
			se = NewFatalStageError(name, err)
		}
	}
	switch se.Kind {
	case StageErrorWarning:
		return StageResultWarning, se
	case StageErrorCanceled:
		return StageResultCanceled, se
	default:
		return StageResultFatal, se
	}
}

// RunStages executes stages in order on one page, recording timing and
// results. Warnings are collected on ps; the first fatal or canceled stage
// stops the run and is returned.
func RunStages(ctx context.Context, ps *PageState, stages []StageDef, rec metrics.Recorder) error {
	rec = metrics.OrNoop(rec)
	for _, st := range stages {
		select {
		case <-ctx.Done():
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return NewCanceledStageError(st.Name, ctx.Err())
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, ps)
		rec.ObserveStageDuration(string(st.Name), time.Since(t0))

		result, se := classify(st.Name, err)
		rec.IncStageResult(string(st.Name), metrics.ResultLabel(result))
		switch result {
		case StageResultWarning:
			ps.Warnings = append(ps.Warnings, se)
		case StageResultFatal, StageResultCanceled:
			return se
		case StageResultSuccess:
		}
	}
	return nil
}
