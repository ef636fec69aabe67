// Package watch re-runs a handler when watched recipe files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler receives the deduplicated, sorted paths changed within one
// debounce window.
type Handler func(paths []string)

// DefaultDebounce is the quiet period before a batch of changes is handed
// to the Handler. Editors often write a file in several steps.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches files, or every file accepted by its filter anywhere
// below a watched directory. Hidden subdirectories are skipped. Files are
// watched through their parent directory so rename-on-save keeps working.
type Watcher struct {
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	filter   func(path string) bool
	logger   *slog.Logger

	files   map[string]bool
	roots   []string
	watched map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce window.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithFilter sets which files inside watched directories are reported.
// Explicitly watched files are always reported.
func WithFilter(f func(path string) bool) Option {
	return func(w *Watcher) {
		w.filter = f
	}
}

// WithLogger sets the logger for watch errors.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

// New creates a Watcher over paths, which may be files or directories.
func New(paths []string, handler Handler, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fw,
		handler:  handler,
		debounce: DefaultDebounce,
		filter:   func(string) bool { return true },
		logger:   slog.Default(),
		files:    make(map[string]bool),
		watched:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch: resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch: %w", err)
		}
		if info.IsDir() {
			w.roots = append(w.roots, abs)
			err = w.addTree(abs)
		} else {
			w.files[abs] = true
			err = w.add(filepath.Dir(abs))
		}
		if err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}
	w.watched[dir] = true
	return nil
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.add(p)
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) tracked(path string) bool {
	if w.files[path] {
		return true
	}
	return w.underRoot(path) && w.filter(path)
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Run delivers batches of changes to the handler until ctx is done or the
// watcher is closed. Pending changes are flushed before returning.
func (w *Watcher) Run(ctx context.Context) error {
	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if timer != nil {
			timer.Stop()
			timer, timerC = nil, nil
		}
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		clear(pending)
		if w.handler != nil {
			w.handler(paths)
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				flush()
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(event.Name)
			if event.Has(fsnotify.Create) && w.underRoot(path) {
				if info, err := os.Stat(path); err == nil && info.IsDir() {
					if strings.HasPrefix(info.Name(), ".") {
						continue
					}
					if err := w.addTree(path); err != nil {
						w.logger.Warn("watch error", "error", err)
					}
					continue
				}
			}
			if !w.tracked(path) {
				continue
			}
			pending[path] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				flush()
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-timerC:
			timer, timerC = nil, nil
			flush()
		}
	}
}
