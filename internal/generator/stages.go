package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

// StageName identifies a generation stage.
type StageName string

const (
	StageParse   StageName = "parse"
	StageAnalyze StageName = "analyze"
	StageRender  StageName = "render"
)

// StageErrorKind classifies the outcome of a failed stage.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Generation must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError wraps a stage failure with its kind.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// StageResult captures the high-level outcome of a stage.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// classify turns a raw stage error into a StageError. Context errors become
// canceled, classified non-fatal errors become warnings and everything else
// is fatal.
func classify(stage StageName, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
	}
	if ce, ok := derrors.AsClassified(err); ok && ce.Severity() == derrors.SeverityWarning {
		return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
	}
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func resultFor(k StageErrorKind) StageResult {
	switch k {
	case StageErrorWarning:
		return StageResultWarning
	case StageErrorCanceled:
		return StageResultCanceled
	default:
		return StageResultFatal
	}
}

// stageDef pairs a stage with the state it runs in.
type stageDef struct {
	name  StageName
	state State
	fn    func(ctx context.Context) error
}

// stageHooks observe the runner.
type stageHooks struct {
	enter    func(State) error
	complete func(stage StageName, d time.Duration, res StageResult, err *StageError)
}

// runStages executes stages in order, stopping at the first fatal or
// canceled stage.
func runStages(ctx context.Context, stages []stageDef, hooks stageHooks) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := &StageError{Kind: StageErrorCanceled, Stage: st.name, Err: err}
			hooks.complete(st.name, 0, StageResultCanceled, se)
			return se
		}
		if err := hooks.enter(st.state); err != nil {
			return err
		}

		t0 := time.Now()
		err := st.fn(ctx)
		dur := time.Since(t0)

		if err == nil {
			hooks.complete(st.name, dur, StageResultSuccess, nil)
			continue
		}
		se := classify(st.name, err)
		hooks.complete(st.name, dur, resultFor(se.Kind), se)
		if se.Kind != StageErrorWarning {
			return se
		}
	}
	return nil
}
