// Package watch rebuilds the site when files below the input root change and,
// optionally, on a fixed interval.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one build. Errors are logged; watching continues.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Every schedules periodic rebuilds when positive.
	Every time.Duration
	// Ignore lists directories whose events never trigger a rebuild, such as
	// an output directory placed below the input root.
	Ignore []string
}

// Watcher serializes builds: a change arriving while a build runs schedules
// exactly one follow-up build.
type Watcher struct {
	root   string
	build  BuildFunc
	opts   Options
	ignore []string

	requests chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New returns a Watcher for root.
func New(root string, build BuildFunc, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}
	return &Watcher{
		root:     root,
		build:    build,
		opts:     opts,
		ignore:   ignore,
		requests: make(chan struct{}, 1),
	}
}

// Run performs an initial build and then rebuilds on changes until ctx ends.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid watch root").
			WithContext("path", w.root).Fatal().Build()
	}
	w.root = root

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Fatal().Build()
	}
	defer func() { _ = watcher.Close() }()
	w.addDirsRecursive(watcher, root)

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

	done := make(chan struct{})
	go w.worker(ctx, done)
	w.request()

	slog.Info("Watching for changes", logfields.Path(root),
		slog.Duration("debounce", w.opts.Debounce), slog.Duration("every", w.opts.Every))
	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping watcher")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Fatal().Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Every),
		gocron.NewTask(w.request),
		gocron.WithName("periodic-build"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to schedule periodic build").
			WithContext("every", w.opts.Every.String()).Fatal().Build()
	}
	return s, nil
}

// request asks the worker for a build. Requests made while one is pending
// coalesce.
func (w *Watcher) request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

// trigger requests a build once no change arrived for the debounce period.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.request)
}

func (w *Watcher) worker(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.requests:
			start := time.Now()
			if err := w.build(ctx); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
				continue
			}
			slog.Info("Rebuild complete", logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
		}
	}
}

func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event) {
	if w.ignored(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(watcher, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) ignored(p string) bool {
	for _, dir := range w.ignore {
		for _, d := range []string{dir, dir + "_stage", dir + ".prev"} {
			if p == d || strings.HasPrefix(p, d+string(filepath.Separator)) {
				return true
			}
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(watcher *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != root && (w.ignored(p) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnoreEvent reports events for hidden, editor temporary and OS
// metadata files.
func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
