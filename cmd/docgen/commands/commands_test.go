package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docgen/internal/config"
	"git.home.luguber.info/inful/docgen/internal/eventstore"
	derrors "git.home.luguber.info/inful/docgen/internal/foundation/errors"
)

const libSrc = `// Package lib greets. See [Greeter].
package lib

// Greeter says hello.
type Greeter struct{ Name string }
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docgen"),
		kong.Vars{"version": "docgen test"},
		kong.Bind(&Global{Out: &out, Err: &errOut}),
		kong.Exit(func(code int) { t.Fatalf("unexpected exit %d", code) }),
	)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	err = ctx.Run(cli)
	return out.String(), err
}

func project(t *testing.T, cfg string) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, "lib.go"), libSrc)
	path = filepath.Join(dir, config.DefaultFile)
	writeFile(t, path, cfg)
	return dir, path
}

func TestInitThenGenerate(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "init", "--output", dir)
	require.NoError(t, err)
	require.Contains(t, out, "Initialized successfully")
	path := filepath.Join(dir, config.DefaultFile)
	require.FileExists(t, path)

	_, err = run(t, "init", "--output", dir)
	require.Error(t, err, "existing file is kept without --force")

	writeFile(t, filepath.Join(dir, "lib.go"), libSrc)
	writeFile(t, filepath.Join(dir, "docs", "module.md"), "# Module example.com/mymodule\n\nOverview.\n")
	out, err = run(t, "--config", path, "generate")
	require.NoError(t, err)
	require.Contains(t, out, "module=example.com/mymodule")
	require.Contains(t, out, "outcome=success")
	require.FileExists(t, filepath.Join(dir, "build", "docgen", "index.html"))
}

func TestGenerateFlagOverrides(t *testing.T) {
	dir, path := project(t, "module_name: example.com/lib\n")
	out, err := run(t, "--config", path, "generate", "--format", "json", "--output", filepath.Join(dir, "api"))
	require.NoError(t, err)
	require.Contains(t, out, "format=json")
	require.FileExists(t, filepath.Join(dir, "api", "module.json"))
}

func TestGenerateRelativeOutputFollowsWorkingDirectory(t *testing.T) {
	dir, path := project(t, "module_name: example.com/lib\n")
	cwd := t.TempDir()
	t.Chdir(cwd)

	_, err := run(t, "--config", path, "generate", "--format", "json", "--output", "api")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(cwd, "api", "module.json"))
	require.NoDirExists(t, filepath.Join(dir, "api"))
}

func TestGenerateRejectsInvalidFormatFlag(t *testing.T) {
	_, path := project(t, "module_name: example.com/lib\n")
	_, err := run(t, "--config", path, "generate", "--format", "pdf")
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeInvalidOption))
}

func TestGenerateSkipsWithoutSources(t *testing.T) {
	_, path := project(t, "source_dirs: [missing]\n")
	out, err := run(t, "--config", path, "generate")
	require.NoError(t, err)
	require.Contains(t, out, "Skipped:")
}

func TestGenerateUnknownClasspathSourceExitCode(t *testing.T) {
	_, path := project(t, "dependencies: {compile: [vendor]}\nclasspath_sources: [compile, doesNotExist]\n")
	_, err := run(t, "--config", path, "generate")
	require.Error(t, err)
	require.True(t, derrors.HasCode(err, derrors.CodeUnknownClasspathSource))
	require.Equal(t, 7, derrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestGenerateStrictExitCode(t *testing.T) {
	_, path := project(t, "module_name: example.com/lib\n")
	writeFile(t, filepath.Join(filepath.Dir(path), "more.go"), "package lib\n\n// Other uses [Nowhere].\nfunc Other() {}\n")
	out, err := run(t, "--config", path, "generate", "--strict")
	require.Error(t, err)
	require.Contains(t, out, "outcome=failed")
	require.Contains(t, out, "UNRESOLVED_REFERENCE")
	require.Equal(t, 11, derrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestHistory(t *testing.T) {
	_, path := project(t, "module_name: example.com/lib\nhistory:\n  database: state/history.db\n")
	for range 2 {
		_, err := run(t, "--config", path, "generate")
		require.NoError(t, err)
	}

	out, err := run(t, "--config", path, "history", "--json")
	require.NoError(t, err)
	var runs []eventstore.RunSummary
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 2)
	for _, r := range runs {
		require.Equal(t, "success", r.Outcome)
		require.Equal(t, "example.com/lib", r.Module)
	}

	out, err = run(t, "--config", path, "history", "-n", "1")
	require.NoError(t, err)
	require.Contains(t, out, "RUN")
	require.Contains(t, out, "example.com/lib")
}

func TestHistoryRequiresDatabase(t *testing.T) {
	_, path := project(t, "module_name: example.com/lib\n")
	_, err := run(t, "--config", path, "history")
	require.Error(t, err)
	require.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
}

func TestDefaultCommandWithoutConfigFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "greeter")
	writeFile(t, filepath.Join(dir, "lib.go"), libSrc)
	t.Chdir(dir)

	out, err := run(t)
	require.NoError(t, err)
	require.Contains(t, out, "module=greeter")
	require.FileExists(t, filepath.Join(dir, "build", "docgen", "index.html"))
}

func TestWatchOptions(t *testing.T) {
	dir, path := project(t, "source_dirs: [src, /abs/src]\nincludes: [docs/a.md]\nwatch:\n  every: 1m\n")
	cfg, err := config.Load(path)
	require.NoError(t, err)

	opts, err := (&WatchCmd{}).options(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "src"),
		"/abs/src",
		filepath.Join(dir, "docs", "a.md"),
		path,
	}, opts.Paths)
	require.Equal(t, []string{filepath.Join(dir, config.DefaultOutputDirectory)}, opts.Ignore)
	require.Equal(t, int64(60), int64(opts.Every.Seconds()))
	require.Equal(t, int64(500), opts.Debounce.Milliseconds())
}
