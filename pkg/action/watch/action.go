package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/cmmoran/autoctor/pkg/action/generate"
	"github.com/cmmoran/autoctor/pkg/autoctor"
)

const DefaultDebounce = 300 * time.Millisecond

// RunFunc receives the outcome of every regeneration.
type RunFunc func(s *generate.Summary, err error)

// Watcher regenerates constructors whenever Go sources under the input
// directory change.
type Watcher struct {
	opts     *autoctor.Options
	debounce time.Duration
	onRun    RunFunc
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
}

// New creates a watcher over every non-hidden directory under opts.InDir.
func New(opts *autoctor.Options, debounce time.Duration, onRun RunFunc) (*Watcher, error) {
	opts.Normalize()
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if onRun == nil {
		onRun = func(*generate.Summary, error) {}
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	w := &Watcher{
		opts:     opts,
		debounce: debounce,
		onRun:    onRun,
		watcher:  fw,
		logger:   slog.Default().With("dir", opts.InDir),
	}
	if err := w.addTree(opts.InDir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

// Run generates once, then again after every debounced burst of source
// changes, until ctx is done. Regenerations never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	w.regenerate(ctx)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) && w.addIfDir(event.Name) {
				continue
			}
			if !relevant(event) {
				continue
			}
			w.logger.With("file", event.Name, "op", event.Op.String()).Log(ctx, slog.Level(-8), "source changed")
			timer.Reset(w.debounce)

		case <-timer.C:
			w.regenerate(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.With("error", err).Warn("watcher error")
		}
	}
}

func (w *Watcher) regenerate(ctx context.Context) {
	s, err := generate.Generate(ctx, w.opts)
	if ctx.Err() != nil {
		return
	}
	w.onRun(s, err)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return errors.Wrapf(err, "watch %s", path)
		}
		return nil
	})
}

// addIfDir starts watching a newly created directory.
func (w *Watcher) addIfDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || skipDir(filepath.Base(path)) {
		return false
	}
	if err := w.addTree(path); err != nil {
		w.logger.With("error", err, "path", path).Warn("unable to watch new directory")
	}
	return true
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" || name == "vendor"
}

// relevant reports whether event touches a hand-written Go source file.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	return strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_autoctor.go") &&
		!strings.HasSuffix(name, "_test.go")
}
