package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/docgen/internal/config"
	"git.home.luguber.info/inful/docgen/internal/diag"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/generator"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Output string `short:"o" help:"Override the output directory (relative to the working directory)"`
	Format string `short:"f" help:"Override the output format (html, markdown, json, msgpack)"`
	Strict bool   `help:"Fail on unresolved references"`
	Jobs   int    `short:"j" help:"Parallel parse jobs (0 uses all CPUs)" default:"0"`
}

func (g *GenerateCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if err := g.apply(cfg); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	res, err := generator.Run(ctx, cfg, generator.Env{Sink: diag.NewTerminalSink(global.Err), Jobs: g.Jobs})
	if res != nil {
		printReport(global, res.Report)
	}
	return err
}

// apply layers command line overrides onto cfg and validates the result.
func (g *GenerateCmd) apply(cfg *config.Config) error {
	if g.Output != "" {
		out, err := filepath.Abs(g.Output)
		if err != nil {
			return derrors.ConfigError("cannot resolve --output").
				WithCode(derrors.CodeInvalidOption).
				WithCause(err).
				WithContext("output", g.Output).
				Build()
		}
		cfg.OutputDirectory = out
	}
	if g.Format != "" {
		cfg.OutputFormat = g.Format
	}
	if g.Strict {
		cfg.Strictness = "strict"
	}
	return config.ValidateConfig(cfg)
}

func printReport(global *Global, r *generator.Report) {
	if r.Outcome == generator.OutcomeSkipped {
		_, _ = fmt.Fprintf(global.Out, "Skipped: %s\n", r.SkipReason)
		return
	}
	_, _ = fmt.Fprintln(global.Out, r.Summary())
	for _, is := range r.Issues {
		_, _ = fmt.Fprintf(global.Out, "  %s [%s] %s\n", is.Stage, is.Code, is.Message)
	}
}
