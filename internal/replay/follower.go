// Package replay reads capture directories written by the rotating store,
// either as a one-shot pass or live, following the active rotation file
// while another devinsight process is still writing it.
package replay

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/admbahm/devinsight/internal/model"
	"github.com/admbahm/devinsight/internal/storage"
)

const checkpointInterval = 5 * time.Second

// Follower streams StoredLog records out of a capture directory in
// ingestion order and keeps streaming as the capturing process appends
// and rotates. Offsets survive restarts via the checkpoint.
type Follower struct {
	mu      sync.Mutex
	dir     string
	out     chan model.StoredLog
	ckpt    *Checkpoint
	watch   *Watcher
	reader  *storage.Reader
	offsets map[string]int64 // partial-read positions for open .jsonl files
	done    map[string]bool  // fully consumed files (compressed or rotated away)
}

// NewFollower creates a Follower over a capture directory. The watcher
// must be watching the same directory.
func NewFollower(dir string, w *Watcher, ckpt *Checkpoint) *Follower {
	return &Follower{
		dir:     dir,
		out:     make(chan model.StoredLog, 512),
		ckpt:    ckpt,
		watch:   w,
		reader:  storage.NewReader(),
		offsets: make(map[string]int64),
		done:    make(map[string]bool),
	}
}

// Records returns the channel carrying replayed records.
func (f *Follower) Records() <-chan model.StoredLog {
	return f.out
}

// Start replays all existing rotation files, then follows new activity.
// Blocks until the context is cancelled.
func (f *Follower) Start(ctx context.Context) {
	defer close(f.out)

	f.catchUp()

	saveTicker := time.NewTicker(checkpointInterval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.saveCheckpoint()
			return

		case ev, ok := <-f.watch.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&fsnotify.Create != 0:
				// A new rotation file means the previous active file is
				// closed; drain it before touching the new one so the
				// cross-file order matches ingestion order.
				f.catchUp()
			case ev.Op&fsnotify.Write != 0:
				f.readNew(ev.Path)
			}

		case <-saveTicker.C:
			f.saveCheckpoint()
		}
	}
}

// catchUp reads every known rotation file, in creation order, up to its
// current end.
func (f *Follower) catchUp() {
	files, err := storage.ListDir(f.dir)
	if err != nil {
		log.Printf("replay: list %s: %v", f.dir, err)
		return
	}
	// ListDir already orders by sequence; keep it stable regardless.
	sort.Strings(files)

	for _, path := range files {
		if f.done[path] {
			continue
		}
		if strings.HasSuffix(path, storage.CompressedExt) {
			f.readCompressed(path)
			continue
		}
		f.readNew(path)
	}
}

// readCompressed replays a compacted file. The capturing process may
// compress a rotation file the follower already streamed in plain form,
// so records before the plain file's consumed offset are skipped rather
// than emitted twice. Compressed files are immutable; one pass finishes
// both forms.
func (f *Follower) readCompressed(path string) {
	plain := strings.TrimSuffix(path, storage.CompressedExt)

	f.mu.Lock()
	offset, ok := f.offsets[plain]
	if !ok {
		offset, _ = f.ckpt.Get(plain)
	}
	f.mu.Unlock()

	err := f.reader.ReadFileFrom(path, offset, func(rec model.StoredLog) error {
		f.out <- rec
		return nil
	})
	if err != nil {
		log.Printf("replay: read %s: %v", path, err)
		return
	}

	f.mu.Lock()
	f.done[path] = true
	f.done[plain] = true
	delete(f.offsets, plain)
	f.mu.Unlock()
}

// readNew reads records appended to a plain rotation file since the last
// offset. Partial trailing lines stay unread until the writer finishes
// them.
func (f *Follower) readNew(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done[path] {
		return
	}

	offset, ok := f.offsets[path]
	if !ok {
		if saved, found := f.ckpt.Get(path); found {
			offset = saved
		}
	}

	file, err := os.Open(path)
	if err != nil {
		log.Printf("replay: open %s: %v", path, err)
		return
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		log.Printf("replay: seek %s: %v", path, err)
		return
	}

	r := bufio.NewReader(file)
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			// An unterminated tail belongs to a write still in flight;
			// leave the offset before it.
			break
		}
		rec, derr := f.reader.Decode(line[:len(line)-1])
		if derr != nil {
			log.Printf("replay: %s: %v", path, derr)
			offset += int64(len(line))
			continue
		}
		offset += int64(len(line))
		f.out <- rec
	}

	f.offsets[path] = offset
	f.ckpt.Set(path, offset)
}

func (f *Follower) saveCheckpoint() {
	if err := f.ckpt.Save(); err != nil {
		log.Printf("replay: checkpoint save failed: %v", err)
	}
}
