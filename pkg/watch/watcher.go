package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RunFunc performs one expansion and returns the files it read. The
// dependency list may be partial (or empty) when err is non-nil.
type RunFunc func(ctx context.Context) (dependencies []string, err error)

// Config configures a Watcher.
type Config struct {
	// Path is the root document. It is always watched.
	Path string

	// Debounce is the quiet period before a change triggers a run.
	// Default: 200ms
	Debounce time.Duration
}

// Watcher re-runs an expansion when any of its inputs change.
type Watcher struct {
	config   Config
	run      RunFunc
	watcher  *fsnotify.Watcher
	debounce *Debouncer
	logger   *slog.Logger

	runMu sync.Mutex

	mu      sync.RWMutex
	running bool
	files   map[string]struct{}
	dirs    map[string]struct{}
	lastRun time.Time
	lastErr error
	runs    int
}

// New creates a watcher. logger may be nil.
func New(cfg Config, run RunFunc, logger *slog.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, errors.New("watch path cannot be empty")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		config:   cfg,
		run:      run,
		watcher:  fsw,
		debounce: NewDebouncer(cfg.Debounce),
		logger:   logger.With("component", "watch"),
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// Watch runs the expansion once, then again after every change, until ctx is
// cancelled. Failed runs are logged and recorded; watching continues.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.debounce.Stop()
		w.watcher.Close()
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.execute(ctx, "initial")

	w.logger.Info("watching for changes",
		"path", w.config.Path,
		"debounce_ms", w.config.Debounce.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("file event", "path", event.Name, "op", event.Op.String())

			name := event.Name
			w.debounce.Trigger(func() {
				w.execute(ctx, name)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("file watcher error", "error", err)
		}
	}
}

// execute performs one run and refreshes the watched set.
func (w *Watcher) execute(ctx context.Context, trigger string) {
	if ctx.Err() != nil {
		return
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()

	start := time.Now()
	deps, err := w.run(ctx)

	w.mu.Lock()
	w.lastRun = time.Now()
	w.lastErr = err
	w.runs++
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("expansion failed", "trigger", trigger, "error", err)
	} else {
		w.logger.Info("expansion completed",
			"trigger", trigger,
			"dependencies", len(deps),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	if err == nil || len(deps) > 0 {
		w.update(deps)
	} else {
		w.update(w.Files())
	}
}

// update replaces the watched file set. The root document is always kept.
func (w *Watcher) update(deps []string) {
	files := map[string]struct{}{canonical(w.config.Path): {}}
	for _, dep := range deps {
		files[canonical(dep)] = struct{}{}
	}

	dirs := make(map[string]struct{}, len(files))
	for f := range files {
		dirs[filepath.Dir(f)] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for dir := range dirs {
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			w.logger.Warn("failed to watch directory", "path", dir, "error", err)
			delete(dirs, dir)
			continue
		}
		w.logger.Debug("watching directory", "path", dir)
	}
	for dir := range w.dirs {
		if _, ok := dirs[dir]; !ok {
			_ = w.watcher.Remove(dir)
		}
	}

	w.files = files
	w.dirs = dirs
}

// relevant reports whether event touches a watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[canonical(event.Name)]
	return ok
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Runs returns how many expansions have completed.
func (w *Watcher) Runs() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.runs
}

// LastRun returns the time and error of the most recent expansion.
func (w *Watcher) LastRun() (time.Time, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastRun, w.lastErr
}

// Check is a health check that fails while the latest expansion failed.
func (w *Watcher) Check(ctx context.Context) error {
	at, err := w.LastRun()
	if at.IsZero() {
		return errors.New("no expansion has completed yet")
	}
	if err != nil {
		return fmt.Errorf("last expansion failed: %w", err)
	}
	return nil
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
