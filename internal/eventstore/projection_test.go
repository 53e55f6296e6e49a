package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recordRun(t *testing.T, store Store, runID string, outcome string) {
	t.Helper()
	ctx := t.Context()
	started, err := NewGenerationStarted(runID, GenerationStartedMeta{Module: "example.com/m", Format: "html", Sources: 2})
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, started))
	for _, stage := range []string{"parse", "analyze", "render"} {
		e, err := NewStageCompleted(runID, StageCompletedMeta{Stage: stage, Result: "success", DurationMS: 5})
		require.NoError(t, err)
		require.NoError(t, Record(ctx, store, e))
	}
	finished, err := NewGenerationFinished(runID, GenerationFinishedMeta{
		State: "done", Outcome: outcome, DurationMS: 20, Files: 4, Declarations: 9, Warnings: 1,
	})
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, finished))
}

func TestRunHistoryProjectionRebuild(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	recordRun(t, store, "run-1", "warning")

	p := NewRunHistoryProjection(store, 10)
	require.NoError(t, p.Rebuild(t.Context()))

	run, ok := p.Run("run-1")
	require.True(t, ok)
	require.Equal(t, "example.com/m", run.Module)
	require.Equal(t, "html", run.Format)
	require.Equal(t, runStatusFinished, run.Status)
	require.Equal(t, "done", run.State)
	require.Equal(t, "warning", run.Outcome)
	require.Equal(t, 4, run.Files)
	require.Equal(t, 9, run.Declarations)
	require.Equal(t, 1, run.Warnings)
	require.Equal(t, 20*time.Millisecond, run.Duration)
	require.NotNil(t, run.FinishedAt)
	require.Len(t, run.Stages, 3)
	require.Equal(t, "analyze", run.Stages[1].Stage)
	require.Equal(t, 5*time.Millisecond, run.Stages[1].Duration)

	_, ok = p.Run("missing")
	require.False(t, ok)
}

func TestRunHistoryProjectionKeepsRunningRuns(t *testing.T) {
	p := NewRunHistoryProjection(nil, 10)
	started, err := NewGenerationStarted("run-1", GenerationStartedMeta{Module: "m"})
	require.NoError(t, err)
	p.Apply(started)

	history := p.History()
	require.Len(t, history, 1)
	require.Equal(t, runStatusRunning, history[0].Status)
	require.Nil(t, history[0].FinishedAt)
}

func TestRunHistoryProjectionPrunesOldestFinished(t *testing.T) {
	p := NewRunHistoryProjection(nil, 2)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		at := base.Add(time.Duration(i) * time.Minute)
		p.Apply(&BaseEvent{EventRunID: id, EventType: TypeGenerationStarted, EventTimestamp: at, EventPayload: []byte(`{}`)})
		p.Apply(&BaseEvent{EventRunID: id, EventType: TypeGenerationFinished, EventTimestamp: at.Add(time.Second), EventPayload: []byte(`{"outcome":"success"}`)})
	}

	history := p.History()
	require.Len(t, history, 2)
	require.Equal(t, "run-c", history[0].RunID)
	require.Equal(t, "run-b", history[1].RunID)
	require.Equal(t, "success", history[0].Outcome)
}

func TestRunHistoryProjectionIgnoresEventsWithoutRunID(t *testing.T) {
	p := NewRunHistoryProjection(nil, 2)
	p.Apply(&BaseEvent{EventType: TypeGenerationStarted, EventTimestamp: time.Now()})
	require.Empty(t, p.History())
}
