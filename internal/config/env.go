package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docgen/internal/logfields"
)

// envFiles are loaded from the configuration directory in this order.
// Variables already present in the process environment are never overridden,
// so .env wins over .env.local for keys both define.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every env file that exists in dir and reports which
// ones were read.
func loadEnvFiles(dir string) ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, err
		}
		slog.Debug("Loaded environment file", logfields.Path(path))
		loaded = append(loaded, path)
	}
	return loaded, nil
}
