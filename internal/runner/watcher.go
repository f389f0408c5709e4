package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joshua-maros/ackulator/internal/logging"
)

// ScriptExt is the file extension watch mode reacts to.
const ScriptExt = ".ack"

// Watcher watches a directory for script changes and reruns each settled
// file. Rapid saves are debounced so an editor's write bursts trigger one
// run.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	runner      *Runner
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats WatchStats
}

// WatchStats tracks watcher activity for status display and debugging.
type WatchStats struct {
	FilesChanged  int
	FilesDeleted  int
	RunsTriggered int
	RunsFailed    int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
}

// NewWatcher creates a watcher over dir. Start must be called to begin
// watching.
func NewWatcher(r *Runner, dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fsw,
		runner:      r,
		dir:         dir,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the event loop runs in a goroutine
// until Stop or context cancellation.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		logging.Get(logging.CategoryRunner).Warn("watch: cannot create %s: %v", w.dir, err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Runner("watch: %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryRunner).Error("watch: close: %v", err)
	}
	logging.Runner("watch: stopped")
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatchStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// settles debounced events in batches
	ticker := time.NewTicker(100 * time.Millisecond)
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
			logging.Get(logging.CategoryRunner).Error("watch: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			for _, path := range w.settled(time.Now()) {
				w.rerun(ctx, path)
			}
		}
	}
}

// handleEvent records a script event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ScriptExt) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name

	switch {
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		w.stats.FilesChanged++
		w.debounceMap[event.Name] = time.Now()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.stats.FilesDeleted++
		// a deleted file has nothing to rerun
		delete(w.debounceMap, event.Name)
	}
}

// settled returns the paths whose last event is older than the debounce
// window, removing them from the pending map.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var paths []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			paths = append(paths, path)
			delete(w.debounceMap, path)
		}
	}
	return paths
}

func (w *Watcher) rerun(ctx context.Context, path string) {
	logging.Runner("watch: rerun %s", filepath.Base(path))
	rep, err := w.runner.RunFile(ctx, path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.RunsTriggered++
	if err != nil || rep.Failed() {
		w.stats.RunsFailed++
	}
	if err != nil {
		logging.Get(logging.CategoryRunner).Error("watch: rerun %s: %v", path, err)
	}
}
