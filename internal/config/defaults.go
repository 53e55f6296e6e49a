package config

import (
	"path/filepath"

	"git.home.luguber.info/inful/docgen/internal/docgen"
)

const (
	DefaultOutputDirectory = "build/docgen"
	DefaultEventsSubject   = "docgen.diagnostics"
	DefaultWatchDebounce   = "500ms"
	// DefaultClasspathSource is used when classpath_sources is omitted and a
	// dependency set of this name exists.
	DefaultClasspathSource = "compile"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PathsDefaultApplier anchors the project root and fills path defaults.
type PathsDefaultApplier struct{}

func (p *PathsDefaultApplier) Domain() string { return "paths" }

func (p *PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	switch {
	case cfg.ProjectRoot == "":
		cfg.ProjectRoot = cfg.baseDir
	case !filepath.IsAbs(cfg.ProjectRoot) && cfg.baseDir != "":
		cfg.ProjectRoot = filepath.Join(cfg.baseDir, cfg.ProjectRoot)
	}
	if cfg.ProjectRoot != "" {
		cfg.ProjectRoot = filepath.Clean(cfg.ProjectRoot)
	}

	if cfg.ModuleName == "" && cfg.ProjectRoot != "" {
		cfg.ModuleName = filepath.Base(cfg.ProjectRoot)
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = DefaultOutputDirectory
	}
	if len(cfg.SourceDirs) == 0 {
		cfg.SourceDirs = []string{"."}
	}
	// An explicit empty list disables the classpath.
	if cfg.ClasspathSources == nil {
		if _, ok := cfg.Dependencies[DefaultClasspathSource]; ok {
			cfg.ClasspathSources = []string{DefaultClasspathSource}
		}
	}

	cfg.Metrics.Textfile = underRoot(cfg.ProjectRoot, cfg.Metrics.Textfile)
	cfg.History.Database = underRoot(cfg.ProjectRoot, cfg.History.Database)
	return nil
}

func underRoot(root, p string) string {
	if p == "" || filepath.IsAbs(p) || root == "" {
		return p
	}
	return filepath.Join(root, p)
}

// GenerationDefaultApplier handles output format, platform and strictness.
type GenerationDefaultApplier struct{}

func (g *GenerationDefaultApplier) Domain() string { return "generation" }

func (g *GenerationDefaultApplier) ApplyDefaults(cfg *Config) error {
	// Unknown values are left for validation to report.
	if f, err := docgen.ParseOutputFormat(cfg.OutputFormat); err == nil {
		cfg.OutputFormat = string(f)
	}
	if s, err := docgen.ParseStrictness(cfg.Strictness); err == nil {
		cfg.Strictness = string(s)
	}
	if cfg.PlatformVersion == 0 {
		cfg.PlatformVersion = docgen.DefaultPlatformVersion
	}
	return nil
}

// ObservabilityDefaultApplier handles logging, events and watch defaults.
type ObservabilityDefaultApplier struct{}

func (o *ObservabilityDefaultApplier) Domain() string { return "observability" }

func (o *ObservabilityDefaultApplier) ApplyDefaults(cfg *Config) error {
	if lvl, err := ParseLogLevel(string(cfg.Logging.Level)); err == nil {
		cfg.Logging.Level = lvl
	}
	if f, err := ParseLogFormat(string(cfg.Logging.Format)); err == nil {
		cfg.Logging.Format = f
	}
	if cfg.Events.NATSURL != "" && cfg.Events.Subject == "" {
		cfg.Events.Subject = DefaultEventsSubject
	}
	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	return nil
}

// DefaultAppliers returns appliers in the order they must run.
func DefaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		&PathsDefaultApplier{},
		&GenerationDefaultApplier{},
		&ObservabilityDefaultApplier{},
	}
}

func applyDefaults(cfg *Config) error {
	for _, a := range DefaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
