// Package generator runs the documentation pipeline: parse, analyze and
// render, with a report, metrics and run history around them.
package generator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docgen/internal/analyze"
	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	"git.home.luguber.info/inful/docgen/internal/eventstore"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/linkmap"
	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/metrics"
	"git.home.luguber.info/inful/docgen/internal/model"
	"git.home.luguber.info/inful/docgen/internal/parse"
	"git.home.luguber.info/inful/docgen/internal/render"
)

// Generator produces documentation for one request at a time. The zero
// value discards diagnostics and records nothing.
type Generator struct {
	Sink     diag.Sink
	Recorder metrics.Recorder
	// Store, when set, receives one event per run milestone. Failures to
	// record are logged and never fail the generation.
	Store eventstore.Store
	// Jobs bounds parallel parsing; zero uses GOMAXPROCS.
	Jobs int
	// Registry overrides the link registry built from the options.
	Registry *linkmap.Registry
}

// Result is the outcome of Generate.
type Result struct {
	RunID  string
	State  State
	Trail  []State // every state visited, starting with idle
	Report *Report
	Module *model.Module
}

// Generate runs parse, analyze and render. A failure in any stage stops the
// run in StateFailed and leaves partial output in place.
func (g *Generator) Generate(ctx context.Context, req *docgen.Request) (*Result, error) {
	runID := uuid.NewString()
	rec := g.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	report := newReport(runID, req.Options)
	sm := newMachine()
	res := &Result{RunID: runID, Report: report}
	log := slog.With(logfields.RunID(runID), logfields.Module(report.Module))

	g.record(ctx, log, func() (eventstore.Event, error) {
		return eventstore.NewGenerationStarted(runID, eventstore.GenerationStartedMeta{
			Module:          report.Module,
			Format:          report.Format,
			OutputDirectory: report.OutputDirectory,
			Sources:         len(req.Sources),
		})
	})

	sink := &countingSink{next: g.Sink, report: report, recorder: rec}
	if sink.next == nil {
		sink.next = diag.Discard
	}

	var (
		parsed   *parse.Result
		analyzed *analyze.Stats
	)
	stages := []stageDef{
		{name: StageParse, state: StateParsing, fn: func(ctx context.Context) error {
			if !req.HasSources() {
				return derrors.GenerationError("no source directories to document").
					WithCode(derrors.CodeNoSources).
					Fatal().
					Build()
			}
			var err error
			parsed, err = (&parse.Parser{Jobs: g.Jobs, Sink: sink}).Parse(ctx, req)
			if err != nil {
				return err
			}
			res.Module = parsed.Module
			report.FilesParsed, report.FilesFailed = parsed.FilesParsed, parsed.FilesFailed
			report.Packages = len(parsed.Module.Packages)
			report.Declarations = parsed.Module.Count()
			rec.AddFilesParsed(parsed.FilesParsed)
			rec.SetDeclarations(report.Declarations)
			return nil
		}},
		{name: StageAnalyze, state: StateAnalyzing, fn: func(ctx context.Context) error {
			var err error
			analyzed, err = (&analyze.Analyzer{Sink: sink, Registry: g.Registry}).Analyze(ctx, req, parsed.Module, parsed.Samples)
			if analyzed != nil {
				report.References, report.Unresolved = analyzed.References, analyzed.Unresolved
				report.Inherited, report.Examples, report.SourceLinks = analyzed.Inherited, analyzed.Examples, analyzed.SourceLinks
			}
			return err
		}},
		{name: StageRender, state: StateRendering, fn: func(ctx context.Context) error {
			stats, err := (&render.Renderer{Sink: sink}).Render(ctx, req.Options, parsed.Module)
			if stats != nil {
				report.FilesWritten, report.BrokenLinks = stats.Files, stats.BrokenLinks
			}
			return err
		}},
	}

	hooks := stageHooks{
		enter: sm.advance,
		complete: func(stage StageName, d time.Duration, result StageResult, se *StageError) {
			report.StageDurations[stage] = d
			report.StageResults[stage] = result
			rec.ObserveStageDuration(string(stage), d)
			rec.IncStageResult(string(stage), metrics.ResultLabel(result))
			meta := eventstore.StageCompletedMeta{Stage: string(stage), Result: string(result), DurationMS: d.Milliseconds()}
			if se != nil {
				report.AddIssue(se)
				meta.Error = se.Err.Error()
			}
			log.Debug("Stage complete", logfields.Stage(string(stage)), logfields.DurationMS(float64(d)/float64(time.Millisecond)), logfields.Outcome(string(result)))
			g.record(ctx, log, func() (eventstore.Event, error) { return eventstore.NewStageCompleted(runID, meta) })
		},
	}

	err := runStages(ctx, stages, hooks)
	final := StateDone
	if err != nil {
		final = StateFailed
	}
	if aerr := sm.advance(final); aerr != nil && err == nil {
		err = derrors.WrapError(aerr, derrors.CategoryInternal, "generation state machine").Build()
		_ = sm.advance(StateFailed)
	}
	res.State, res.Trail = sm.state, sm.trail

	report.Finish()
	report.DeriveOutcome(err)
	rec.ObserveGenerationDuration(report.Duration())
	rec.IncGenerationOutcome(string(report.Outcome))

	finished := eventstore.GenerationFinishedMeta{
		State:        string(res.State),
		Outcome:      string(report.Outcome),
		DurationMS:   report.Duration().Milliseconds(),
		Files:        report.FilesWritten,
		Declarations: report.Declarations,
		Warnings:     report.Warnings,
		Errors:       report.Errors,
	}
	if err != nil {
		finished.Error = err.Error()
	}
	// A canceled ctx must not prevent the final event from being stored.
	g.record(context.WithoutCancel(ctx), log, func() (eventstore.Event, error) {
		return eventstore.NewGenerationFinished(runID, finished)
	})

	if err != nil {
		log.Error("Generation failed", logfields.Error(err), logfields.Outcome(string(report.Outcome)))
		return res, err
	}
	log.Info("Generation complete", slog.String("summary", report.Summary()))
	return res, nil
}

func (g *Generator) record(ctx context.Context, log *slog.Logger, build func() (eventstore.Event, error)) {
	if g.Store == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = eventstore.Record(ctx, g.Store, e)
	}
	if err != nil {
		log.Warn("Failed to record run event", logfields.Error(err))
	}
}

// countingSink tallies diagnostics into the report and metrics before
// forwarding them.
type countingSink struct {
	mu       sync.Mutex
	next     diag.Sink
	report   *Report
	recorder metrics.Recorder
}

func (s *countingSink) Emit(d diag.Diagnostic) {
	s.mu.Lock()
	if d.Severity == diag.SeverityError {
		s.report.Errors++
	} else {
		s.report.Warnings++
	}
	s.mu.Unlock()
	s.recorder.IncDiagnostic(string(d.Severity), d.Code)
	s.next.Emit(d)
}
