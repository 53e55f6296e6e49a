// Package docgen holds the immutable generation options and the per-invocation request.
package docgen

import (
	"strings"

	"fortio.org/safecast"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/foundation/normalization"
	"git.home.luguber.info/inful/docgen/internal/linkmap"
)

// OutputFormat selects the renderer.
type OutputFormat string

const (
	FormatHTML     OutputFormat = "html"
	FormatMarkdown OutputFormat = "markdown"
	FormatJSON     OutputFormat = "json"
	FormatMsgpack  OutputFormat = "msgpack"
)

// Strictness controls whether unresolved references fail generation.
type Strictness string

const (
	Lenient Strictness = "lenient"
	Strict  Strictness = "strict"
)

// DefaultPlatformVersion is the Go minor version used for standard library links.
const DefaultPlatformVersion = 6

var formatNormalizer = normalization.NewNormalizer("output format", map[string]OutputFormat{
	"html":     FormatHTML,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"json":     FormatJSON,
	"msgpack":  FormatMsgpack,
}, FormatHTML)

var strictnessNormalizer = normalization.NewNormalizer("strictness", map[string]Strictness{
	"lenient": Lenient,
	"warn":    Lenient,
	"strict":  Strict,
	"error":   Strict,
}, Lenient)

// ParseOutputFormat normalizes a user supplied format; empty means html.
func ParseOutputFormat(s string) (OutputFormat, error) { return formatNormalizer.Parse(s) }

// ParseStrictness normalizes a user supplied strictness; empty means lenient.
func ParseStrictness(s string) (Strictness, error) { return strictnessNormalizer.Parse(s) }

// OptionsInput carries raw option values for NewOptions.
type OptionsInput struct {
	ModuleName        string
	OutputDirectory   string
	OutputFormat      string
	SourceLinks       []linkmap.Mapping
	PlatformVersion   int // 0 selects DefaultPlatformVersion
	Strictness        string
	IncludeUnexported bool
	IncludeTests      bool
}

// Options is the validated, immutable configuration bundle for one generation.
type Options struct {
	moduleName        string
	outputDirectory   string
	outputFormat      OutputFormat
	sourceLinks       []linkmap.Mapping
	platformVersion   uint8
	strictness        Strictness
	includeUnexported bool
	includeTests      bool
}

// NewOptions validates in and builds Options. Failures are configuration
// errors with code INVALID_OPTION.
func NewOptions(in OptionsInput) (Options, error) {
	name := strings.TrimSpace(in.ModuleName)
	if name == "" {
		return Options{}, invalidOption("module_name", "module name must not be empty", nil)
	}
	out := strings.TrimSpace(in.OutputDirectory)
	if out == "" {
		return Options{}, invalidOption("output_directory", "output directory must not be empty", nil)
	}
	format, err := ParseOutputFormat(in.OutputFormat)
	if err != nil {
		return Options{}, invalidOption("output_format", "unsupported output format", err)
	}
	strictness, err := ParseStrictness(in.Strictness)
	if err != nil {
		return Options{}, invalidOption("strictness", "unsupported strictness", err)
	}
	pv := in.PlatformVersion
	if pv == 0 {
		pv = DefaultPlatformVersion
	}
	version, err := safecast.Conv[uint8](pv)
	if err != nil || version == 0 {
		return Options{}, invalidOption("platform_version", "platform version must be between 1 and 255", err).
			WithContext("platform_version", pv)
	}
	links := make([]linkmap.Mapping, len(in.SourceLinks))
	copy(links, in.SourceLinks)

	return Options{
		moduleName:        name,
		outputDirectory:   out,
		outputFormat:      format,
		sourceLinks:       links,
		platformVersion:   version,
		strictness:        strictness,
		includeUnexported: in.IncludeUnexported,
		includeTests:      in.IncludeTests,
	}, nil
}

func invalidOption(field, msg string, cause error) *derrors.ClassifiedError {
	b := derrors.ConfigError(msg).
		WithCode(derrors.CodeInvalidOption).
		WithContext("option", field)
	if cause != nil {
		b = b.WithCause(cause)
	}
	return b.Build()
}

func (o Options) ModuleName() string         { return o.moduleName }
func (o Options) OutputDirectory() string    { return o.outputDirectory }
func (o Options) OutputFormat() OutputFormat { return o.outputFormat }
func (o Options) PlatformVersion() uint8     { return o.platformVersion }
func (o Options) Strictness() Strictness     { return o.strictness }
func (o Options) IncludeUnexported() bool    { return o.includeUnexported }
func (o Options) IncludeTests() bool         { return o.includeTests }
func (o Options) IsStrict() bool             { return o.strictness == Strict }

// SourceLinks returns a copy of the configured link mappings.
func (o Options) SourceLinks() []linkmap.Mapping {
	out := make([]linkmap.Mapping, len(o.sourceLinks))
	copy(out, o.sourceLinks)
	return out
}
