package codebase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// WithSuffixes sets the file name suffixes treated as PHP sources.
func WithSuffixes(suffixes ...string) Option {
	return func(c *config) {
		c.suffixes = suffixes
	}
}

// WithExclude skips paths matching any of the glob patterns. Patterns are
// matched against slash separated paths relative to the root, so "*"
// stays within one segment and "**" crosses them.
func WithExclude(patterns ...string) Option {
	return func(c *config) {
		c.exclude = append(c.exclude, patterns...)
	}
}

// Codebase keeps the sources under a root directory and the result of the
// latest build over them.
type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	cfg     *config
	exclude []glob.Glob
	files   map[string][]byte
	result  *Result
}

func New(rootDir string, opts ...Option) (*Codebase, error) {
	c := &Codebase{
		rootDir: rootDir,
		cfg:     newConfig(opts),
		files:   make(map[string][]byte),
	}
	for _, pattern := range c.cfg.exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", pattern, err)
		}
		c.exclude = append(c.exclude, g)
	}
	return c, nil
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

// Matches reports whether path is a source file this codebase reads.
func (c *Codebase) Matches(path string) bool {
	if !c.hasSuffix(path) {
		return false
	}
	return !c.excluded(path)
}

func (c *Codebase) hasSuffix(path string) bool {
	for _, suffix := range c.cfg.suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

func (c *Codebase) excluded(path string) bool {
	rel, err := filepath.Rel(c.rootDir, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, g := range c.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Discover lists matching files below the root in lexical order. Hidden
// directories and excluded directories are not entered.
func (c *Codebase) Discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(c.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != c.rootDir && (strings.HasPrefix(d.Name(), ".") || c.excluded(path)) {
				return filepath.SkipDir
			}
			return nil
		}
		if c.Matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ScanAll reads every matching file below the root and rebuilds.
func (c *Codebase) ScanAll(ctx context.Context) (*Result, error) {
	paths, err := c.Discover()
	if err != nil {
		return nil, err
	}
	files := make(map[string][]byte, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		files[path] = data
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = files
	return c.rebuildLocked(ctx), nil
}

// UpdateFile replaces the text of one file, typically an unsaved editor
// buffer, and rebuilds.
func (c *Codebase) UpdateFile(ctx context.Context, path string, content []byte) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = content
	return c.rebuildLocked(ctx)
}

func (c *Codebase) RemoveFile(ctx context.Context, path string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
	return c.rebuildLocked(ctx)
}

// Reload rereads paths from disk, dropping the ones that no longer exist,
// and rebuilds once.
func (c *Codebase) Reload(ctx context.Context, paths []string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			delete(c.files, path)
			continue
		}
		if err != nil {
			return nil, err
		}
		c.files[path] = data
	}
	return c.rebuildLocked(ctx), nil
}

// Rebuild builds a fresh model from the current sources. Models are
// read-only once resolved, so every change rebuilds from scratch.
func (c *Codebase) Rebuild(ctx context.Context) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rebuildLocked(ctx)
}

func (c *Codebase) rebuildLocked(ctx context.Context) *Result {
	c.result = build(ctx, c.sourcesLocked(), c.cfg)
	return c.result
}

func (c *Codebase) sourcesLocked() []Source {
	sources := make([]Source, 0, len(c.files))
	for path, text := range c.files {
		sources = append(sources, Source{Path: path, Text: text})
	}
	sort.Slice(sources, func(i, j int) bool {
		return sources[i].Path < sources[j].Path
	})
	return sources
}

// Result returns the latest build, or nil before the first one.
func (c *Codebase) Result() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Paths lists the known files in lexical order.
func (c *Codebase) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for path := range c.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
