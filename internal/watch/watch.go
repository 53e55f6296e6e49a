// Package watch regenerates documentation when watched sources change and,
// optionally, on a fixed schedule.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docgen/internal/logfields"
)

// Rebuild reasons passed to RebuildFunc.
const (
	ReasonStartup  = "startup"
	ReasonChange   = "change"
	ReasonSchedule = "schedule"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc performs one regeneration. Errors are logged and watching
// continues.
type RebuildFunc func(ctx context.Context, reason string) error

// Options configures a Watcher.
type Options struct {
	// Paths are watched recursively when they are directories. Missing
	// paths are skipped.
	Paths []string
	// Ignore lists paths whose changes never trigger a rebuild, typically
	// the output directory.
	Ignore   []string
	Debounce time.Duration
	// Every schedules an additional rebuild at this interval; zero disables.
	Every time.Duration
}

// Watcher serializes rebuilds requested by file events and the schedule.
// At most one rebuild runs at a time and at most one more is queued.
type Watcher struct {
	opts    Options
	rebuild RebuildFunc
	fsw     *fsnotify.Watcher
	roots   []string
	ignore  []string

	requests chan string
	mu       sync.Mutex
	timer    *time.Timer
}

// New creates a Watcher and registers the watched paths.
func New(opts Options, rebuild RebuildFunc) (*Watcher, error) {
	if rebuild == nil {
		return nil, errors.New("watch: rebuild function is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{opts: opts, rebuild: rebuild, fsw: fsw, requests: make(chan string, 1)}
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, abs)
		}
	}
	for _, p := range opts.Paths {
		if err := w.add(p); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(p string) error {
	abs, err := filepath.Abs(p)
	if err != nil {
		return fmt.Errorf("resolve watch path %s: %w", p, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		slog.Debug("Skipping missing watch path", logfields.Path(abs))
		return nil
	}
	w.roots = append(w.roots, abs)
	if !fi.IsDir() {
		// Editors often replace files, so watch the directory holding them.
		return w.fsw.Add(filepath.Dir(abs))
	}
	return w.addDirsRecursive(abs)
}

func (w *Watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (shouldIgnoreEvent(path) || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// Close releases the file watcher. Run closes it on return as well.
func (w *Watcher) Close() error { return w.fsw.Close() }

// Run performs an initial rebuild, then rebuilds on changes and on the
// schedule until ctx is canceled. It waits for a running rebuild to finish
// before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	if w.opts.Every > 0 {
		sched, err := w.schedule()
		if err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Shutdown(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx)
	}()
	defer wg.Wait()
	defer cancel()
	defer w.stopTimer()

	w.request(ReasonStartup)
	slog.Info("Watching for changes", logfields.Count(len(w.roots)), logfields.DurationMS(float64(w.opts.Debounce)/float64(time.Millisecond)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(w.opts.Every),
		gocron.NewTask(func() { w.request(ReasonSchedule) }),
		gocron.WithName("docgen-periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return sched, nil
}

func (w *Watcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-w.requests:
			slog.Info("Regenerating documentation", slog.String("reason", reason))
			if err := w.rebuild(ctx, reason); err != nil && ctx.Err() == nil {
				slog.Warn("Regeneration failed", logfields.Error(err))
			}
		}
	}
}

// request queues a rebuild unless one is already queued.
func (w *Watcher) request(reason string) {
	select {
	case w.requests <- reason:
	default:
	}
}

// trigger debounces change events into one rebuild request.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() { w.request(ReasonChange) })
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || shouldIgnoreEvent(ev.Name) || w.ignored(ev.Name) || !w.relevant(ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

// relevant reports whether path is a watched file or lies below a watched
// directory.
func (w *Watcher) relevant(path string) bool {
	for _, r := range w.roots {
		if within(r, path) {
			return true
		}
	}
	return false
}

func (w *Watcher) ignored(path string) bool {
	for _, ig := range w.ignore {
		if within(ig, path) {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}

// shouldIgnoreEvent reports hidden files and editor temporaries.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}
