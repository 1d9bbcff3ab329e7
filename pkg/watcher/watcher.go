package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/fm-ecosystem/pkg/logging"
)

// ChangeEvent represents a batch of changes to watched files
type ChangeEvent struct {
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches the input tables for changes.
// Parent directories are watched rather than the files themselves so that
// editors and exporters that replace a file by rename are still noticed.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]bool // cleaned absolute paths of watched files
	dirs    map[string]bool
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the given files
func NewFileWatcher(paths ...string) (*FileWatcher, error) {
	fw := &FileWatcher{
		files:  make(map[string]bool),
		dirs:   make(map[string]bool),
		events: make(chan ChangeEvent, 100),
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		fw.files[abs] = true
		fw.dirs[filepath.Dir(abs)] = true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	fw.watcher = watcher

	return fw, nil
}

// Start begins watching. Events are delivered until ctx is cancelled.
func (fw *FileWatcher) Start(ctx context.Context) error {
	for dir := range fw.dirs {
		if err := fw.watcher.Add(dir); err != nil {
			_ = fw.watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	logging.Info("watching tables for changes", "files", len(fw.files), "directories", len(fw.dirs))

	go fw.processEvents(ctx)
	return nil
}

// relevant reports whether an fsnotify event touches one of the watched files
func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return fw.files[abs]
}

// processEvents forwards relevant events, batching those that arrive within 100ms
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer func() { _ = fw.watcher.Close() }()

	var pending []string
	seen := make(map[string]bool)

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	// flush reports false when ctx ended before the batch could be delivered
	flush := func() bool {
		if len(pending) == 0 {
			return true
		}
		select {
		case fw.events <- ChangeEvent{Paths: pending, Timestamp: time.Now()}:
		case <-ctx.Done():
			return false
		}
		pending = nil
		seen = make(map[string]bool)
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			logging.Trace("table changed", "path", event.Name, "op", event.Op.String())
			if !seen[event.Name] {
				seen[event.Name] = true
				pending = append(pending, event.Name)
			}
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			if !flush() {
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events. It is closed when the watcher stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
