// Package eventstore records generation runs as events in SQLite and folds
// them into a run history.
package eventstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

const (
	runStatusRunning  = "running"
	runStatusFinished = "finished"
)

// StageSummary is one stage of a run as seen in history.
type StageSummary struct {
	Stage    string        `json:"stage"`
	Result   string        `json:"result"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary is the read model of one generation run.
type RunSummary struct {
	RunID        string         `json:"run_id"`
	Module       string         `json:"module,omitempty"`
	Format       string         `json:"format,omitempty"`
	Status       string         `json:"status"` // running or finished
	State        string         `json:"state,omitempty"`
	Outcome      string         `json:"outcome,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
	Stages       []StageSummary `json:"stages,omitempty"`
	Files        int            `json:"files"`
	Declarations int            `json:"declarations"`
	Warnings     int            `json:"warnings"`
	Errors       int            `json:"errors"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// RunHistoryProjection rebuilds run summaries from stored events.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	maxSize int
}

// NewRunHistoryProjection creates a projection over store keeping at most
// maxSize runs; non-positive sizes default to 100.
func NewRunHistoryProjection(store Store, maxSize int) *RunHistoryProjection {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RunHistoryProjection{store: store, runs: map[string]*RunSummary{}, maxSize: maxSize}
}

// Rebuild replays every stored event.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = map[string]*RunSummary{}
	for _, e := range events {
		p.applyLocked(e)
	}
	return nil
}

// Apply folds a single event into the projection.
func (p *RunHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
}

func (p *RunHistoryProjection) applyLocked(e Event) {
	id := e.RunID()
	if id == "" {
		return
	}
	run, ok := p.runs[id]
	if !ok {
		run = &RunSummary{RunID: id, Status: runStatusRunning, StartedAt: e.Timestamp()}
		p.runs[id] = run
	}

	switch e.Type() {
	case TypeGenerationStarted:
		var meta GenerationStartedMeta
		if json.Unmarshal(e.Payload(), &meta) == nil {
			run.Module, run.Format = meta.Module, meta.Format
		}
		run.StartedAt = e.Timestamp()
	case TypeStageCompleted:
		var meta StageCompletedMeta
		if json.Unmarshal(e.Payload(), &meta) == nil {
			run.Stages = append(run.Stages, StageSummary{
				Stage:    meta.Stage,
				Result:   meta.Result,
				Duration: time.Duration(meta.DurationMS) * time.Millisecond,
				Error:    meta.Error,
			})
		}
	case TypeGenerationFinished:
		var meta GenerationFinishedMeta
		if json.Unmarshal(e.Payload(), &meta) == nil {
			run.State, run.Outcome = meta.State, meta.Outcome
			run.Files, run.Declarations = meta.Files, meta.Declarations
			run.Warnings, run.Errors = meta.Warnings, meta.Errors
			run.ErrorMessage = meta.Error
			run.Duration = time.Duration(meta.DurationMS) * time.Millisecond
		}
		at := e.Timestamp()
		run.FinishedAt = &at
		run.Status = runStatusFinished
		p.pruneLocked()
	}
}

// pruneLocked drops the oldest finished runs beyond maxSize.
func (p *RunHistoryProjection) pruneLocked() {
	if len(p.runs) <= p.maxSize {
		return
	}
	for _, run := range p.sortedLocked()[p.maxSize:] {
		if run.Status == runStatusFinished {
			delete(p.runs, run.RunID)
		}
	}
}

// sortedLocked orders runs newest first; ties break on run ID.
func (p *RunHistoryProjection) sortedLocked() []*RunSummary {
	out := make([]*RunSummary, 0, len(p.runs))
	for _, r := range p.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.After(out[j].StartedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	return out
}

// History returns copies of all known runs, newest first.
func (p *RunHistoryProjection) History() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	sorted := p.sortedLocked()
	out := make([]RunSummary, len(sorted))
	for i, r := range sorted {
		out[i] = *r
		out[i].Stages = append([]StageSummary(nil), r.Stages...)
	}
	return out
}

// Run returns the summary of one run.
func (p *RunHistoryProjection) Run(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.runs[runID]
	if !ok {
		return RunSummary{}, false
	}
	cp := *r
	cp.Stages = append([]StageSummary(nil), r.Stages...)
	return cp, true
}
