package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joshua-maros/ackulator/internal/config"
)

func testWatcher(t *testing.T) (*Watcher, *bytes.Buffer, string) {
	t.Helper()
	var out bytes.Buffer
	dir := t.TempDir()
	w, err := NewWatcher(New(config.DefaultConfig(), &out), dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	return w, &out, dir
}

func TestWatcherDebounce(t *testing.T) {
	w, _, _ := testWatcher(t)
	defer w.watcher.Close()

	// Rapid writes collapse into one pending entry.
	w.handleEvent(fsnotify.Event{Name: "a.ack", Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: "a.ack", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "a.ack", Op: fsnotify.Write})
	if len(w.debounceMap) != 1 {
		t.Fatalf("pending = %d, want 1", len(w.debounceMap))
	}
	if got := w.Stats().FilesChanged; got != 3 {
		t.Errorf("FilesChanged = %d, want 3", got)
	}

	// Still inside the window: nothing settles.
	if paths := w.settled(time.Now()); len(paths) != 0 {
		t.Errorf("settled too early: %v", paths)
	}
	// Past the window: the file settles exactly once.
	later := time.Now().Add(w.debounceDur + time.Second)
	if paths := w.settled(later); len(paths) != 1 || paths[0] != "a.ack" {
		t.Errorf("settled = %v, want [a.ack]", paths)
	}
	if paths := w.settled(later); len(paths) != 0 {
		t.Errorf("settled twice: %v", paths)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	w, _, _ := testWatcher(t)
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "a.ack.swp", Op: fsnotify.Write})
	if len(w.debounceMap) != 0 {
		t.Errorf("non-script events queued: %v", w.debounceMap)
	}
	if got := w.Stats().FilesChanged; got != 0 {
		t.Errorf("FilesChanged = %d, want 0", got)
	}
}

func TestWatcherDeleteClearsPending(t *testing.T) {
	w, _, _ := testWatcher(t)
	defer w.watcher.Close()

	w.handleEvent(fsnotify.Event{Name: "a.ack", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "a.ack", Op: fsnotify.Remove})
	if len(w.debounceMap) != 0 {
		t.Errorf("deleted file still pending: %v", w.debounceMap)
	}
	if got := w.Stats().FilesDeleted; got != 1 {
		t.Errorf("FilesDeleted = %d, want 1", got)
	}
}

func TestWatcherStartStop(t *testing.T) {
	w, _, _ := testWatcher(t)

	ctx := context.Background()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Start is idempotent while running.
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	w.Stop()
	// Stop after stop is a no-op.
	w.Stop()
}

func TestWatcherRerunsChangedScript(t *testing.T) {
	w, out, dir := testWatcher(t)
	w.debounceDur = 50 * time.Millisecond

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "demo.ack")
	if err := os.WriteFile(path, []byte("show 2 + 3\n"), 0644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if w.Stats().RunsTriggered >= 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	stats := w.Stats()
	if stats.RunsTriggered < 1 {
		t.Fatalf("no rerun after %v: stats %+v", 5*time.Second, stats)
	}
	if stats.RunsFailed != 0 {
		t.Errorf("rerun failed: stats %+v, output:\n%s", stats, out.String())
	}
}
