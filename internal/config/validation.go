package config

import (
	"fmt"
	"strings"
	"time"

	"fortio.org/safecast"

	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

// ValidateConfig checks a configuration with defaults already applied.
func ValidateConfig(cfg *Config) error {
	return newConfigurationValidator(cfg).validate()
}

// configurationValidator checks each configuration domain in turn.
type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	for _, check := range []func() error{
		cv.validateGeneration,
		cv.validateLinkMappings,
		cv.validateLogging,
		cv.validateWatch,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func invalid(field string, cause error, format string, args ...any) error {
	b := derrors.ConfigError(fmt.Sprintf(format, args...)).
		WithCode(derrors.CodeInvalidOption).
		WithContext("field", field)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

func (cv *configurationValidator) validateGeneration() error {
	cfg := cv.config
	if strings.TrimSpace(cfg.ModuleName) == "" {
		return invalid("module_name", nil, "module_name must not be empty")
	}
	if _, err := docgen.ParseOutputFormat(cfg.OutputFormat); err != nil {
		return invalid("output_format", err, "invalid output_format %q", cfg.OutputFormat)
	}
	if _, err := docgen.ParseStrictness(cfg.Strictness); err != nil {
		return invalid("strictness", err, "invalid strictness %q", cfg.Strictness)
	}
	if v, err := safecast.Conv[uint8](cfg.PlatformVersion); err != nil || v == 0 {
		return invalid("platform_version", err, "platform_version must be between 1 and 255, got %d", cfg.PlatformVersion)
	}
	for name := range cfg.Dependencies {
		if strings.TrimSpace(name) == "" {
			return invalid("dependencies", nil, "dependency set names must not be empty")
		}
	}
	return nil
}

func (cv *configurationValidator) validateLinkMappings() error {
	for i, m := range cv.config.LinkMappings {
		if strings.TrimSpace(m.Dir) == "" || strings.TrimSpace(m.URL) == "" {
			return derrors.ConfigError(fmt.Sprintf("link_mappings[%d] requires both dir and url", i)).
				WithCode(derrors.CodeInvalidLinkMapping).
				WithContext("index", i).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	if _, err := ParseLogLevel(string(cv.config.Logging.Level)); err != nil {
		return invalid("logging.level", err, "invalid logging.level %q", cv.config.Logging.Level)
	}
	if _, err := ParseLogFormat(string(cv.config.Logging.Format)); err != nil {
		return invalid("logging.format", err, "invalid logging.format %q", cv.config.Logging.Format)
	}
	return nil
}

func (cv *configurationValidator) validateWatch() error {
	w := cv.config.Watch
	if d, err := time.ParseDuration(w.Debounce); err != nil || d < 0 {
		return invalid("watch.debounce", err, "invalid watch.debounce %q", w.Debounce)
	}
	if w.Every != "" {
		d, err := time.ParseDuration(w.Every)
		if err != nil || d < time.Second {
			return invalid("watch.every", err, "watch.every must be a duration of at least 1s, got %q", w.Every)
		}
	}
	return nil
}
