package codebase

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 200 * time.Millisecond

// FileWatcher rebuilds a codebase when source files below its root change.
type FileWatcher struct {
	codebase *Codebase
	fs       *fsnotify.Watcher
	debounce time.Duration
	onChange func(*Result, error)

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// NewFileWatcher reports every rebuild to onChange. Changes arriving
// within debounce of each other are rebuilt together.
func NewFileWatcher(c *Codebase, debounce time.Duration, onChange func(*Result, error)) (*FileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &FileWatcher{
		codebase: c,
		fs:       fsw,
		debounce: debounce,
		onChange: onChange,
		pending:  make(map[string]bool),
	}, nil
}

// Watch blocks until ctx ends or the underlying watcher fails.
func (w *FileWatcher) Watch(ctx context.Context) error {
	defer w.close()
	if err := w.addRecursive(w.codebase.RootDir()); err != nil {
		return err
	}
	log := w.codebase.cfg.log

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						log.Warningf("watch %s: %s", event.Name, err)
					}
					w.scheduleExisting(ctx, event.Name)
					continue
				}
			}
			if !w.codebase.Matches(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watcher: %s", err)
		}
	}
}

func (w *FileWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.codebase.RootDir() && (strings.HasPrefix(d.Name(), ".") || w.codebase.excluded(path)) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *FileWatcher) scheduleExisting(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if w.codebase.Matches(path) {
			w.schedule(ctx, path)
		}
		return nil
	})
}

func (w *FileWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.flush(ctx)
	})
}

func (w *FileWatcher) flush(ctx context.Context) {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(paths)
	w.codebase.cfg.log.Infof("rebuilding after %d changed files", len(paths))
	result, err := w.codebase.Reload(ctx, paths)
	w.onChange(result, err)
}

func (w *FileWatcher) close() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.fs.Close()
}
