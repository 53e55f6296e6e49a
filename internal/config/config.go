// Package config loads docgen configuration from YAML or TOML files.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/linkmap"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "docgen.yaml"

// Config is the user-facing configuration of one project.
type Config struct {
	ModuleName        string              `yaml:"module_name,omitempty" toml:"module_name,omitempty"`
	ProjectRoot       string              `yaml:"project_root,omitempty" toml:"project_root,omitempty"`
	OutputDirectory   string              `yaml:"output_directory,omitempty" toml:"output_directory,omitempty"`
	OutputFormat      string              `yaml:"output_format,omitempty" toml:"output_format,omitempty"`
	PlatformVersion   int                 `yaml:"platform_version,omitempty" toml:"platform_version,omitempty"`
	Strictness        string              `yaml:"strictness,omitempty" toml:"strictness,omitempty"`
	IncludeUnexported bool                `yaml:"include_unexported,omitempty" toml:"include_unexported,omitempty"`
	IncludeTests      bool                `yaml:"include_tests,omitempty" toml:"include_tests,omitempty"`
	SourceDirs        []string            `yaml:"source_dirs,omitempty" toml:"source_dirs,omitempty"`
	ClasspathSources  []string            `yaml:"classpath_sources,omitempty" toml:"classpath_sources,omitempty"`
	Dependencies      map[string][]string `yaml:"dependencies,omitempty" toml:"dependencies,omitempty"`
	Includes          []string            `yaml:"includes,omitempty" toml:"includes,omitempty"`
	Samples           []string            `yaml:"samples,omitempty" toml:"samples,omitempty"`
	LinkMappings      []linkmap.Mapping   `yaml:"link_mappings,omitempty" toml:"link_mappings,omitempty"`

	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" toml:"metrics,omitempty"`
	History HistoryConfig `yaml:"history,omitempty" toml:"history,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty" toml:"events,omitempty"`
	Watch   WatchConfig   `yaml:"watch,omitempty" toml:"watch,omitempty"`

	// Path is the file the configuration was loaded from, if any.
	Path string `yaml:"-" toml:"-"`
	// EnvFiles lists the .env files applied while loading.
	EnvFiles []string `yaml:"-" toml:"-"`

	baseDir string
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty" toml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty" toml:"format,omitempty"`
}

// MetricsConfig enables a Prometheus textfile export after each run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" toml:"textfile,omitempty"`
}

// HistoryConfig enables the SQLite run history.
type HistoryConfig struct {
	Database string `yaml:"database,omitempty" toml:"database,omitempty"`
}

// EventsConfig enables publishing diagnostics to NATS.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty" toml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty" toml:"subject,omitempty"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	// Debounce is the quiet period after a change before regenerating.
	Debounce string `yaml:"debounce,omitempty" toml:"debounce,omitempty"`
	// Every additionally regenerates on a fixed interval when set.
	Every string `yaml:"every,omitempty" toml:"every,omitempty"`
}

func loadError(path, msg string, cause error) error {
	b := derrors.ConfigError(msg).
		WithCode(derrors.CodeConfigLoad).
		WithContext("path", path)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

// Load reads the configuration at path. Environment files next to it are
// applied first, then ${VAR} references in the file are expanded. The file
// format follows the extension: .toml for TOML, YAML otherwise.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, loadError(path, "cannot resolve configuration path", err)
	}
	dir := filepath.Dir(abs)

	envFiles, err := loadEnvFiles(dir)
	if err != nil {
		return nil, loadError(path, "cannot load environment file", err)
	}

	data, err := os.ReadFile(abs) // #nosec G304 -- path is supplied by the user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, loadError(path, "configuration file not found", err)
		}
		return nil, loadError(path, "cannot read configuration file", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if strings.EqualFold(filepath.Ext(abs), ".toml") {
		meta, err := toml.Decode(expanded, &cfg)
		if err != nil {
			return nil, loadError(path, "failed to parse TOML configuration", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, loadError(path, "unknown configuration key "+undecoded[0].String(), nil)
		}
	} else {
		dec := yaml.NewDecoder(strings.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, loadError(path, "failed to parse YAML configuration", err)
		}
	}
	cfg.Path = abs
	cfg.EnvFiles = envFiles
	cfg.baseDir = dir

	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file exists: the project
// rooted at dir with every default applied.
func Default(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, loadError(dir, "cannot resolve project directory", err)
	}
	cfg := &Config{baseDir: abs}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func finalize(cfg *Config) error {
	if err := applyDefaults(cfg); err != nil {
		return err
	}
	return ValidateConfig(cfg)
}

// Example returns the configuration written by Init.
func Example() *Config {
	return &Config{
		ModuleName:      "example.com/mymodule",
		OutputDirectory: "build/docgen",
		OutputFormat:    "html",
		PlatformVersion: 6,
		Strictness:      "lenient",
		SourceDirs:      []string{"."},
		Includes:        []string{"docs/module.md"},
		LinkMappings: []linkmap.Mapping{
			{Dir: ".", URL: "https://git.example.com/org/repo/blob/{revision}", Suffix: "#L"},
		},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}
}

// Init writes the example configuration to path, refusing to overwrite an
// existing file unless force is set.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return derrors.ConfigError("configuration file already exists: "+path+" (use --force to overwrite)").
			WithCode(derrors.CodeConfigLoad).
			WithContext("path", path).
			Build()
	}

	var buf bytes.Buffer
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.NewEncoder(&buf).Encode(Example()); err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "encode example configuration").Build()
		}
	} else {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(Example()); err != nil {
			return derrors.WrapError(err, derrors.CategoryInternal, "encode example configuration").Build()
		}
		_ = enc.Close()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return derrors.WrapError(err, derrors.CategoryFileSystem, "create configuration directory").
				WithCode(derrors.CodeIOFailure).Build()
		}
	}
	// #nosec G306 -- configuration is not secret
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "write configuration file").
			WithCode(derrors.CodeIOFailure).
			WithContext("path", path).
			Build()
	}
	return nil
}
