package generator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docgen/internal/config"
	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/docgen"
	"git.home.luguber.info/inful/docgen/internal/eventstore"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/linkmap"
	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/metrics"
	"git.home.luguber.info/inful/docgen/internal/resolve"
)

// Env carries what the host supplies beyond the configuration.
type Env struct {
	// Sink receives every diagnostic. Nil logs them through slog.
	Sink diag.Sink
	// Jobs bounds parallel parsing; zero uses GOMAXPROCS.
	Jobs int
}

// Run resolves cfg into a request and generates it. Configured side channels
// (NATS diagnostics, metrics textfile, run history) are opened for the
// duration of the run; failing to open one is logged and does not fail the
// run. A project without any existing source directory is skipped with a
// warning and no error.
func Run(ctx context.Context, cfg *config.Config, env Env) (*Result, error) {
	sink := env.Sink
	if sink == nil {
		sink = diag.NewLogSink(nil)
	}

	links := linkmap.NewRegistry()
	for _, m := range cfg.LinkMappings {
		if err := links.Register(m.Dir, m.URL, m.Suffix); err != nil {
			return nil, err
		}
	}

	req, err := resolve.Resolve(ctx, resolve.Input{
		ProjectRoot:      cfg.ProjectRoot,
		SourceDirs:       cfg.SourceDirs,
		ClasspathSources: cfg.ClasspathSources,
		Dependencies:     cfg.Dependencies,
		Samples:          cfg.Samples,
		Includes:         cfg.Includes,
		Links:            links,
		Options: docgen.OptionsInput{
			ModuleName:        cfg.ModuleName,
			OutputDirectory:   cfg.OutputDirectory,
			OutputFormat:      cfg.OutputFormat,
			PlatformVersion:   cfg.PlatformVersion,
			Strictness:        cfg.Strictness,
			IncludeUnexported: cfg.IncludeUnexported,
			IncludeTests:      cfg.IncludeTests,
		},
	})
	if errors.Is(err, resolve.ErrSkip) {
		return skipped(cfg, sink, err), nil
	}
	if err != nil {
		return nil, err
	}

	registry, err := linkmap.FromMappings(req.Options.SourceLinks())
	if err != nil {
		return nil, err
	}

	if nc := cfg.Events; nc.NATSURL != "" {
		ns, err := diag.DialNATS(nc.NATSURL, nc.Subject)
		if err != nil {
			slog.Warn("Diagnostics publishing disabled", logfields.URL(nc.NATSURL), logfields.Error(err))
		} else {
			ns.Extra = map[string]string{"module": cfg.ModuleName}
			defer ns.Close()
			sink = diag.Multi{sink, ns}
		}
	}

	g := &Generator{
		Sink:     sink,
		Jobs:     env.Jobs,
		Registry: registry.WithRevisionExpansion(),
	}

	var prom *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		g.Recorder = prom
	}

	if cfg.History.Database != "" {
		store, err := OpenHistory(cfg.History.Database)
		if err != nil {
			slog.Warn("Run history disabled", logfields.Path(cfg.History.Database), logfields.Error(err))
		} else {
			defer func() {
				if err := store.Close(); err != nil {
					slog.Warn("Failed to close run history", logfields.Error(err))
				}
			}()
			g.Store = store
		}
	}

	res, err := g.Generate(ctx, req)
	if prom != nil {
		exportMetrics(prom, cfg.Metrics.Textfile)
	}
	return res, err
}

func exportMetrics(prom *metrics.PrometheusRecorder, path string) {
	err := os.MkdirAll(filepath.Dir(path), 0o750)
	if err == nil {
		err = prom.WriteTextfile(path)
	}
	if err != nil {
		slog.Warn("Failed to export metrics", logfields.Path(path), logfields.Error(err))
	}
}

// OpenHistory opens the run history database, creating its directory.
func OpenHistory(path string) (*eventstore.SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryFileSystem, "create run history directory").
			WithCode(derrors.CodeIOFailure).
			Build()
	}
	return eventstore.NewSQLiteStore(path)
}

func skipped(cfg *config.Config, sink diag.Sink, err error) *Result {
	msg := err.Error()
	if ce, ok := derrors.AsClassified(err); ok {
		msg = ce.Message()
	}
	sink.Emit(diag.Warning("resolve", diag.CodeNoSources, cfg.ProjectRoot, 0, "%s", msg))
	r := &Report{
		Module:     cfg.ModuleName,
		Format:     cfg.OutputFormat,
		Outcome:    OutcomeSkipped,
		SkipReason: msg,
		Warnings:   1,
	}
	r.Finish()
	r.Start = r.End
	return &Result{State: StateIdle, Trail: []State{StateIdle}, Report: r}
}
