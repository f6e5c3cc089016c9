package replay

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Event is a change to a rotation file inside the watched directory.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors one capture directory for rotation-file activity.
// Manifest updates, temp files, and compressed artifacts are filtered
// out; consumers only ever see the JSON-lines data files.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	dir    string
}

// NewWatcher starts watching a capture directory.
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 256),
		dir:    dir,
	}, nil
}

// Start forwards relevant file events until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isRotationFile(ev.Name) {
				continue
			}
			switch {
			case ev.Op&fsnotify.Write != 0, ev.Op&fsnotify.Create != 0:
				w.Events <- Event{Path: ev.Name, Op: ev.Op}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("replay watcher: %v", err)
		}
	}
}

// isRotationFile reports whether a path is an active JSON-lines rotation
// file (not compressed, not a temp or manifest file).
func isRotationFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "logcat_") && strings.HasSuffix(base, ".jsonl")
}
