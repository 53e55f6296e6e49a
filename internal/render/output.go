package render

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
	"git.home.luguber.info/inful/docgen/internal/logfields"
)

// MarkerFile identifies a directory written by a previous run.
const MarkerFile = ".docgen"

func ioFailure(err error, format string, args ...any) error {
	return derrors.WrapError(err, derrors.CategoryFileSystem, fmt.Sprintf(format, args...)).
		WithCode(derrors.CodeIOFailure).
		Fatal().
		Build()
}

// prepareOutput creates dir, or clears it when it is empty or was written by
// a previous run. Any other non-empty directory is left alone and rejected.
func prepareOutput(dir string) error {
	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ioFailure(err, "create output directory %s", dir)
		}
	case err != nil:
		return ioFailure(err, "read output directory %s", dir)
	case len(entries) > 0:
		if _, err := os.Stat(filepath.Join(dir, MarkerFile)); err != nil {
			return derrors.FileSystemError(fmt.Sprintf("output directory %s is not empty and was not written by docgen", dir)).
				WithCode(derrors.CodeIOFailure).
				WithContext("path", dir).
				Fatal().
				Build()
		}
		slog.Debug("Clearing previous output", logfields.Path(dir), logfields.Count(len(entries)))
		for _, e := range entries {
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return ioFailure(err, "clear output directory %s", dir)
			}
		}
	}
	return writeFile(dir, MarkerFile, nil)
}

// writeFile writes content to rel below dir, creating parent directories.
func writeFile(dir, rel string, content []byte) error {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return derrors.InternalError(fmt.Sprintf("output path %q escapes the output directory", rel)).Build()
	}
	full := filepath.Join(dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return ioFailure(err, "create directory for %s", full)
	}
	// #nosec G306 -- generated documentation is meant to be readable
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return ioFailure(err, "write %s", full)
	}
	return nil
}
