// Package commands implements the docgen command line.
package commands

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docgen/internal/config"
	"git.home.luguber.info/inful/docgen/internal/logfields"
)

// Global carries the writers commands print to.
type Global struct {
	Out io.Writer
	Err io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (.yaml or .toml)" default:"docgen.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate GenerateCmd `cmd:"" default:"1" help:"Generate documentation for the configured module"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate documentation whenever sources change"`
	History  HistoryCmd  `cmd:"" help:"List recorded generation runs"`
}

// AfterApply runs after flag parsing; setup logging once. The configuration
// file may refine it later.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig reads the configured file. When the default file is absent the
// current directory is documented with default settings.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.Config
	if path == config.DefaultFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if _, err := os.Stat("docgen.toml"); err == nil {
				path = "docgen.toml"
			} else {
				slog.Info("No configuration file found, using defaults", logfields.Path(config.DefaultFile))
				cfg, err := config.Default(".")
				if err != nil {
					return nil, err
				}
				c.setupLogging(cfg.Logging)
				return cfg, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.setupLogging(cfg.Logging)
	return cfg, nil
}

// setupLogging applies the configured level and format; --verbose always
// selects debug.
func (c *CLI) setupLogging(lc config.LoggingConfig) {
	level := lc.Level.Slog()
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if lc.Format == config.LogFormatJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
