package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docgen/internal/config"
	"git.home.luguber.info/inful/docgen/internal/diag"
	"git.home.luguber.info/inful/docgen/internal/generator"
	"git.home.luguber.info/inful/docgen/internal/logfields"
	"git.home.luguber.info/inful/docgen/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	GenerateCmd `embed:""`

	Debounce time.Duration `help:"Quiet period after a change before regenerating (overrides watch.debounce)"`
	Every    time.Duration `help:"Also regenerate at this interval (overrides watch.every)"`
}

func (w *WatchCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := w.apply(cfg); err != nil {
		return err
	}
	opts, err := w.options(cfg)
	if err != nil {
		return err
	}

	sink := diag.NewTerminalSink(global.Err)
	rebuild := func(ctx context.Context, _ string) error {
		// Reload so configuration edits apply to the next run.
		if cfg.Path != "" {
			fresh, err := config.Load(cfg.Path)
			if err != nil {
				return err
			}
			if err := w.apply(fresh); err != nil {
				return err
			}
			cfg = fresh
		}
		res, err := generator.Run(ctx, cfg, generator.Env{Sink: sink, Jobs: w.Jobs})
		if res != nil {
			printReport(global, res.Report)
		}
		return err
	}

	watcher, err := watch.New(opts, rebuild)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	slog.Info("Starting watch mode", logfields.Module(cfg.ModuleName), logfields.Path(cfg.ProjectRoot))
	return watcher.Run(ctx)
}

// options derives what to watch from cfg: sources, includes, samples and the
// configuration file itself. The output directory is ignored.
func (w *WatchCmd) options(cfg *config.Config) (watch.Options, error) {
	opts := watch.Options{Debounce: w.Debounce, Every: w.Every}
	if opts.Debounce == 0 {
		d, err := time.ParseDuration(cfg.Watch.Debounce)
		if err != nil {
			return opts, err
		}
		opts.Debounce = d
	}
	if opts.Every == 0 && cfg.Watch.Every != "" {
		d, err := time.ParseDuration(cfg.Watch.Every)
		if err != nil {
			return opts, err
		}
		opts.Every = d
	}

	under := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(cfg.ProjectRoot, p)
	}
	for _, group := range [][]string{cfg.SourceDirs, cfg.Includes, cfg.Samples} {
		for _, p := range group {
			opts.Paths = append(opts.Paths, under(p))
		}
	}
	if cfg.Path != "" {
		opts.Paths = append(opts.Paths, cfg.Path)
	}
	opts.Ignore = []string{under(cfg.OutputDirectory)}
	if cfg.History.Database != "" {
		opts.Ignore = append(opts.Ignore, cfg.History.Database)
	}
	if cfg.Metrics.Textfile != "" {
		opts.Ignore = append(opts.Ignore, cfg.Metrics.Textfile)
	}
	return opts, nil
}
