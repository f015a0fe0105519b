package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStages_WarningsContinueFatalStops(t *testing.T) {
	var ran []StageName
	mark := func(name StageName, err error) Stage {
		return func(context.Context, *PageState) error {
			ran = append(ran, name)
			return err
		}
	}
	stages := NewStages().
		Add(StageRewriteLinks, mark(StageRewriteLinks, nil)).
		Add(StageSyncLayout, mark(StageSyncLayout, NewWarnStageError(StageSyncLayout, errors.New("no footer")))).
		Add(StageReorganizeHead, mark(StageReorganizeHead, errors.New("boom"))).
		Add(StageBreadcrumbs, mark(StageBreadcrumbs, nil)).
		Build()

	ps := newPageState(nil)
	err := RunStages(context.Background(), ps, stages, nil)

	require.Error(t, err)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorFatal, se.Kind)
	assert.Equal(t, StageReorganizeHead, se.Stage)
	assert.Equal(t, []StageName{StageRewriteLinks, StageSyncLayout, StageReorganizeHead}, ran)
	require.Len(t, ps.Warnings, 1)
	assert.Equal(t, StageSyncLayout, ps.Warnings[0].Stage)
}

func TestRunStages_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	stages := NewStages().Add(StageRewriteLinks, func(context.Context, *PageState) error {
		called = true
		return nil
	}).Build()

	err := RunStages(ctx, newPageState(nil), stages, nil)
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageErrorCanceled, se.Kind)
	assert.False(t, called)
}

func TestStages_AddIf(t *testing.T) {
	noop := func(context.Context, *PageState) error { return nil }
	defs := NewStages().
		AddIf(true, StageRewriteLinks, noop).
		AddIf(false, StageSyncLayout, noop).
		Build()
	require.Len(t, defs, 1)
	assert.Equal(t, StageRewriteLinks, defs[0].Name)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want StageResult
	}{
		{nil, StageResultSuccess},
		{NewWarnStageError(StageMobileBar, errors.New("w")), StageResultWarning},
		{context.Canceled, StageResultCanceled},
		{errors.New("x"), StageResultFatal},
	}
	for _, tt := range tests {
		got, _ := classify(StageMobileBar, tt.err)
		assert.Equal(t, tt.want, got)
	}
}
