package preview

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/doxidize/internal/analysis"
	"git.home.luguber.info/inful/doxidize/internal/config"
	ferrors "git.home.luguber.info/inful/doxidize/internal/foundation/errors"
	"git.home.luguber.info/inful/doxidize/internal/logfields"
)

// watcher turns filesystem events below the project sources into debounced
// change notifications.
type watcher struct {
	fs *fsnotify.Watcher

	root    string
	skip    []string
	inputs  map[string]bool
	pending *debouncer
}

// newWatcher watches docs/ (minus the generated API tree when an analysis
// backend writes it), the crate sources for the treesitter backend, and the
// project config files.
func newWatcher(p *config.Project, window time.Duration, changed func(reason string)) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "failed to create filesystem watcher").Fatal().Build()
	}
	paths := p.Paths
	w := &watcher{
		fs:   fsw,
		root: paths.Root,
		skip: []string{paths.OutputDir(), filepath.Join(paths.Root, "target")},
		inputs: map[string]bool{
			paths.ConfigFile(): true,
			paths.Manifest:     true,
		},
	}
	w.pending = newDebouncer(window, func(reason string) { changed(reason) })
	if analysis.Enabled(p) {
		w.skip = append(w.skip, paths.APIDir())
	}

	dirs := []string{paths.DocsDir()}
	switch p.Config.Analysis.Backend {
	case config.BackendTreeSitter:
		if src := filepath.Join(paths.Root, "src"); dirExists(src) {
			dirs = append(dirs, src)
		}
	case config.BackendDump:
		if dump := p.Config.Analysis.Dump; dump != "" {
			if !filepath.IsAbs(dump) {
				dump = filepath.Join(paths.Root, dump)
			}
			w.inputs[dump] = true
			if dir := filepath.Dir(dump); dir != paths.Root {
				if err := fsw.Add(dir); err != nil {
					slog.Warn("Cannot watch definition dump", logfields.File(dump), logfields.Error(err))
				}
			}
		}
	}

	for _, d := range dirs {
		if err := w.addRecursive(d); err != nil {
			_ = fsw.Close()
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch sources").
				WithContext("dir", d).
				Fatal().
				Build()
		}
	}
	if err := fsw.Add(paths.Root); err != nil {
		_ = fsw.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to watch project root").
			WithContext("dir", paths.Root).
			Fatal().
			Build()
	}
	return w, nil
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (w.skipped(path) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			if path == root {
				return err
			}
			slog.Warn("watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}

func (w *watcher) skipped(path string) bool {
	for _, s := range w.skip {
		if path == s || strings.HasPrefix(path, s+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevant reports whether an event on path should rebuild the site.
func (w *watcher) relevant(path string) bool {
	if shouldIgnoreEvent(path) || w.skipped(path) {
		return false
	}
	if w.inputs[path] {
		return true
	}
	// The project root and the dump directory are watched for single files only.
	dir := filepath.Dir(path)
	if dir == w.root {
		return false
	}
	for in := range w.inputs {
		if dir == filepath.Dir(in) {
			return false
		}
	}
	return true
}

// run forwards events until ctx is done or the watcher is closed.
func (w *watcher) run(ctx context.Context) error {
	defer w.pending.stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if !w.relevant(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) && dirExists(ev.Name) {
		if err := w.addRecursive(ev.Name); err != nil {
			slog.Warn("watch add failed", logfields.Dir(ev.Name), logfields.Error(err))
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.pending.trigger(ev.Name)
}

func (w *watcher) close() error {
	return w.fs.Close()
}

// shouldIgnoreEvent returns true for hidden files and editor droppings.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasSuffix(base, ".tmp"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db", base == "4913":
		return true
	}
	return false
}

func dirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// debouncer coalesces a burst of triggers into one call of fire, issued
// once no trigger arrived for the quiet window.
type debouncer struct {
	window time.Duration
	fire   func(reason string)

	mu     sync.Mutex
	timer  *time.Timer
	reason string
}

func newDebouncer(window time.Duration, fire func(reason string)) *debouncer {
	return &debouncer{window: window, fire: fire}
}

func (d *debouncer) trigger(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reason = reason
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		r := d.reason
		d.mu.Unlock()
		d.fire(r)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
