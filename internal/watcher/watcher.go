// Package watcher triggers debounced rebuilds when watched source directories change.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last event before a target's callback runs.
const DefaultDebounce = 2 * time.Second

// Target is one watched directory. Changes to files accepted by Match are reported under Name.
type Target struct {
	Name  string
	Dir   string
	Match func(path string) bool
}

// ChangeFunc is called once per quiet period with the changed paths of one target, sorted.
// Calls are serialized.
type ChangeFunc func(ctx context.Context, name string, paths []string)

// Watcher watches target directories (not recursively) and invokes a callback on changes.
type Watcher struct {
	targets  []Target
	onChange ChangeFunc
	debounce time.Duration
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending map[string]map[string]struct{}
	runMu   sync.Mutex // serializes callbacks
	ctx     context.Context
	done    chan struct{}
	started bool
	stopOne sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets the quiet period; values <= 0 keep the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// ExtensionMatcher accepts files whose extension is in exts (case-insensitive, dot optional).
// An empty list accepts everything.
func ExtensionMatcher(exts []string) func(string) bool {
	return func(path string) bool {
		return matchExtension(path, exts)
	}
}

// FileMatcher accepts only the file with the given base name.
func FileMatcher(name string) func(string) bool {
	return func(path string) bool {
		return filepath.Base(path) == name
	}
}

// NewWatcher creates a watcher for targets.
func NewWatcher(targets []Target, onChange ChangeFunc, opts ...Option) *Watcher {
	w := &Watcher{
		targets:  targets,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		timers:   make(map[string]*time.Timer),
		pending:  make(map[string]map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. Missing target directories are created. It runs until ctx is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, t := range w.targets {
		dir := filepath.Clean(t.Dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = fw.Close()
			return err
		}
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return err
		}
		w.logger.Debug("watching directory", zap.String("target", t.Name), zap.String("dir", dir))
	}
	w.watcher = fw
	w.ctx = ctx
	w.started = true
	go w.run(ctx, fw)
	return nil
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op&relevantOps == 0 {
		return
	}
	dir := filepath.Dir(filepath.Clean(ev.Name))
	for _, t := range w.targets {
		if filepath.Clean(t.Dir) != dir {
			continue
		}
		if t.Match != nil && !t.Match(ev.Name) {
			continue
		}
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			continue
		}
		w.logger.Debug("watcher event", zap.String("target", t.Name), zap.String("op", ev.Op.String()), zap.String("path", ev.Name))
		w.schedule(t.Name, ev.Name)
	}
}

func (w *Watcher) schedule(name, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	if w.pending[name] == nil {
		w.pending[name] = make(map[string]struct{})
	}
	w.pending[name][path] = struct{}{}
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.debounce, func() { w.fire(name) })
}

func (w *Watcher) fire(name string) {
	w.mu.Lock()
	set := w.pending[name]
	delete(w.pending, name)
	delete(w.timers, name)
	ctx := w.ctx
	w.mu.Unlock()
	if len(set) == 0 || w.onChange == nil {
		return
	}
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	w.runMu.Lock()
	defer w.runMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("Detected changes", zap.String("target", name), zap.Int("files", len(paths)))
	w.onChange(ctx, name, paths)
}

// Targets returns the names of the watched targets.
func (w *Watcher) Targets() []string {
	names := make([]string, len(w.targets))
	for i, t := range w.targets {
		names[i] = t.Name
	}
	return names
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

// Stop stops the watcher, dropping pending changes.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
	w.pending = make(map[string]map[string]struct{})
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOne.Do(func() { close(w.done) })
}
