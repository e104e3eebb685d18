package document

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
)

// DefaultDebounce is how long the watcher waits for a file to settle.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports external changes to markdown documents below a root.
type Watcher struct {
	store    *FileStore
	onChange func(uri string)
	debounce time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher that calls onChange with the URI of every
// markdown document written or created below the store root.
func NewWatcher(store *FileStore, onChange func(uri string), logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		store:    store,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// SetDebounce overrides the debounce interval.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()
	defer w.stopTimers()

	if err := watchDirRecursive(fw, w.store.Root); err != nil {
		w.logger.Error("failed to watch document root", "root", w.store.Root, "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Has(fsnotify.Create) && isDir(event.Name) {
		if err := watchDirRecursive(fw, event.Name); err != nil {
			w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
		}
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !IsMarkdown(event.Name) {
		return
	}
	uri, err := w.store.URI(event.Name)
	if err != nil {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[uri]; ok {
		t.Stop()
	}
	w.timers[uri] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, uri)
		w.mu.Unlock()

		w.logger.Debug("document changed", "uri", uri)
		w.onChange(uri)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for uri, t := range w.timers {
		t.Stop()
		delete(w.timers, uri)
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// watchDirRecursive adds a directory and all non-hidden subdirectories.
func watchDirRecursive(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
