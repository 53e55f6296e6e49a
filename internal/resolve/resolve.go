// Package resolve turns raw configuration values into a validated docgen.Request.
package resolve

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docgen/internal/docgen"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/linkmap"
	"git.home.luguber.info/inful/docgen/internal/logfields"
)

// ErrSkip reports that no source directory exists, so there is nothing to
// document. Callers emit a warning and finish successfully.
var ErrSkip = derrors.ConfigError("no existing source directories; skipping generation").
	WithCode(derrors.CodeNoSources).
	Warning().
	Build()

// Input is the raw material for one invocation.
type Input struct {
	// ProjectRoot anchors relative paths. Empty means the working directory.
	ProjectRoot string
	SourceDirs  []string
	// ClasspathSources names entries of Dependencies whose roots form the classpath.
	ClasspathSources []string
	Dependencies     map[string][]string
	Samples          []string
	Includes         []string
	// Links holds registered mappings with directories as written by the user.
	Links   *linkmap.Registry
	Options docgen.OptionsInput
}

// Resolve validates in and produces a Request with absolute paths.
//
// Classpath sources are checked first so a misconfigured classpath is reported
// even when no source directory exists. Then options are validated, and only
// then is an empty source set reported as ErrSkip.
func Resolve(ctx context.Context, in Input) (*docgen.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := absRoot(in.ProjectRoot)
	if err != nil {
		return nil, err
	}

	classpath, err := resolveClasspath(root, in.ClasspathSources, in.Dependencies)
	if err != nil {
		return nil, err
	}

	optsIn := in.Options
	optsIn.OutputDirectory = absUnder(root, optsIn.OutputDirectory)
	if in.Links != nil {
		for _, m := range in.Links.Mappings() {
			m.Dir = absUnder(root, m.Dir)
			optsIn.SourceLinks = append(optsIn.SourceLinks, m)
		}
	}
	opts, err := docgen.NewOptions(optsIn)
	if err != nil {
		return nil, err
	}

	sources := existingDirs(root, in.SourceDirs)
	if len(sources) == 0 {
		return nil, ErrSkip.WithContext("source_dirs", strings.Join(in.SourceDirs, ","))
	}

	return &docgen.Request{
		Sources:   sources,
		Classpath: classpath,
		Samples:   absAll(root, in.Samples),
		Includes:  absAll(root, in.Includes),
		Options:   opts,
	}, nil
}

func absRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", derrors.ConfigError("cannot resolve project root").
			WithCode(derrors.CodeInvalidOption).
			WithCause(err).
			WithContext("project_root", root).
			Build()
	}
	return abs, nil
}

func resolveClasspath(root string, names []string, sets map[string][]string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, name := range names {
		entries, ok := sets[name]
		if !ok {
			return nil, derrors.ConfigError("unknown classpath source "+name).
				WithCode(derrors.CodeUnknownClasspathSource).
				WithContext("source", name).
				Build()
		}
		for _, e := range entries {
			p := absUnder(root, e)
			if seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}

// existingDirs absolutizes dirs and keeps the existing directories, first
// occurrence wins.
func existingDirs(root string, dirs []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range dirs {
		p := absUnder(root, d)
		if seen[p] {
			continue
		}
		seen[p] = true
		fi, err := os.Stat(p)
		if err != nil || !fi.IsDir() {
			slog.Debug("Dropping missing source directory", logfields.Path(p))
			continue
		}
		out = append(out, p)
	}
	return out
}

func absAll(root string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, absUnder(root, p))
	}
	return out
}

func absUnder(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(root, p)
}
