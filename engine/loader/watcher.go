package loader

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Change identifies a fragment file that was written, created or replaced on disk.
type Change struct {
	// Dir is HashDir or NoiseDir.
	Dir string

	// Name is the fragment name without extension.
	Name string
}

// ChangeHandler is called from the watcher goroutine once a change has settled.
type ChangeHandler func(Change)

// Watcher watches the hash and noise directories of an on-disk catalogue and reports
// settled fragment changes. Rapid successive writes to one file are reported once.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	logger      *zap.Logger
	root        string
	dirs        map[string]string // absolute dir -> catalogue dir
	onChange    ChangeHandler
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a Watcher for the catalogue rooted at root.
//
// Parameters:
//   - root: the catalogue root directory
//   - onChange: called for every settled change
//   - options: functional options applied to the watcher
//
// Returns:
//   - *Watcher: the watcher, not yet started
//   - error: an error if the OS watcher could not be created
func NewWatcher(root string, onChange ChangeHandler, options ...WatcherOption) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:     fw,
		logger:      zap.NewNop(),
		root:        root,
		onChange:    onChange,
		dirs:        make(map[string]string),
		debounceMap: make(map[string]time.Time),
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w, nil
}

// WatcherOption is a functional option applied by NewWatcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher's logger.
func WithWatcherLogger(logger *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long a file must stay quiet before its change is reported.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDur = d
		}
	}
}

// Start begins watching. It is non-blocking; events are processed on a goroutine that
// runs until Stop is called or ctx is done.
//
// Parameters:
//   - ctx: stops the watcher when done
//
// Returns:
//   - error: an error if neither fragment directory could be watched
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	var firstErr error
	for _, dir := range []string{HashDir, NoiseDir} {
		abs := filepath.Join(w.root, filepath.FromSlash(dir))
		if err := w.watcher.Add(abs); err != nil {
			w.logger.Warn("cannot watch fragment directory", zap.String("dir", abs), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		w.dirs[filepath.Clean(abs)] = dir
	}
	if len(w.dirs) == 0 {
		w.mu.Unlock()
		return firstErr
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("watching catalogue", zap.String("root", w.root))
	go w.run(ctx)
	return nil
}

// Stop stops the watcher, waits for its goroutine and releases the OS watcher.
// Safe to call on a watcher that was never started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Warn("error closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, FragmentExt) {
		return
	}
	// removals are ignored; the last good source stays active
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var settled []Change
	for p, t := range w.debounceMap {
		if now.Sub(t) < w.debounceDur {
			continue
		}
		delete(w.debounceMap, p)
		dir, ok := w.dirs[filepath.Dir(filepath.Clean(p))]
		if !ok {
			continue
		}
		settled = append(settled, Change{Dir: dir, Name: strings.TrimSuffix(filepath.Base(p), FragmentExt)})
	}
	w.mu.Unlock()

	for _, c := range settled {
		w.logger.Debug("fragment changed", zap.String("dir", c.Dir), zap.String("name", c.Name))
		w.onChange(c)
	}
}
