package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docgen/internal/eventstore"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/generator"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of runs to show" default:"20"`
	JSON  bool `help:"Print runs as JSON"`
}

func (h *HistoryCmd) Run(global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Database == "" {
		return derrors.ConfigError("run history is disabled; set history.database in the configuration").
			WithCode(derrors.CodeInvalidOption).
			WithContext("field", "history.database").
			Build()
	}

	store, err := generator.OpenHistory(cfg.History.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signalContext()
	defer stop()
	proj := eventstore.NewRunHistoryProjection(store, h.Limit)
	if err := proj.Rebuild(ctx); err != nil {
		return err
	}
	runs := proj.History()
	if h.Limit > 0 && len(runs) > h.Limit {
		runs = runs[:h.Limit]
	}

	if h.JSON {
		enc := json.NewEncoder(global.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(global.Out, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(global.Out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tMODULE\tFORMAT\tOUTCOME\tDURATION\tFILES\tWARNINGS\tERRORS")
	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = r.Status
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			shortID(r.RunID), r.StartedAt.Local().Format(time.DateTime), r.Module, r.Format,
			outcome, r.Duration.Truncate(time.Millisecond), r.Files, r.Warnings, r.Errors)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
