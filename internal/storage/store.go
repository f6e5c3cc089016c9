package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/admbahm/devinsight/internal/model"
)

// ManifestName is the per-directory capture manifest file.
const ManifestName = "manifest.json"

// StorageError wraps any failure inside the store. Callers treat it as
// non-fatal: the record is lost for persistence but ingestion continues.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// Stats is a point-in-time view of the store for status displays.
type Stats struct {
	Session    string `json:"session"`
	ActiveFile string `json:"active_file"`
	Records    int64  `json:"records"`
	Bytes      int64  `json:"bytes"`
	Rotations  int64  `json:"rotations"`
}

// manifest is the on-disk capture index: session identity plus the
// rotation files in creation order, so a reader can reconstruct the full
// record sequence even after files are renamed by compression.
type manifest struct {
	Session string    `json:"session"`
	Created time.Time `json:"created"`
	Files   []string  `json:"files"`
}

// Store appends StoredLog records to a size-rotated set of JSON-lines
// files. Exactly one file is open for writing at any time; closed files
// are never touched again. A single goroutine owns the write path, but
// the write-and-maybe-rotate sequence is serialized anyway so Stats and
// a future second producer can never observe a split rotation.
type Store struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
	session  uuid.UUID
	events   chan<- model.RotationEvent // optional, never blocks

	file     *os.File
	path     string
	seq      int
	size     int64
	fileRecs int

	manifest manifest

	totalRecords int64
	totalBytes   int64
	rotations    int64
}

// New creates the target directory if needed and opens the first rotation
// file. maxBytes bounds each file; events, when non-nil, receives one
// RotationEvent per closed file and is never blocked on.
func New(dir string, maxBytes int64, events chan<- model.RotationEvent) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &StorageError{Op: "create directory", Err: err}
	}

	s := &Store{
		dir:      dir,
		maxBytes: maxBytes,
		session:  uuid.New(),
		events:   events,
	}
	s.manifest = manifest{Session: s.session.String(), Created: time.Now()}

	if err := s.openNext(); err != nil {
		return nil, err
	}
	return s, nil
}

// Store serializes one record and appends it to the active file, rotating
// first when the record would push the file past maxBytes. The record
// lands in exactly one file: rotation happens before the write, never
// between its bytes.
func (s *Store) Store(rec model.StoredLog) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return &StorageError{Op: "encode record", Err: err}
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return &StorageError{Op: "write", Err: os.ErrClosed}
	}

	// A record larger than maxBytes still has to live somewhere; only
	// rotate when the active file already holds data.
	if s.size > 0 && s.size+int64(len(data)) > s.maxBytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}

	n, err := s.file.Write(data)
	s.size += int64(n)
	s.totalBytes += int64(n)
	if err != nil {
		return &StorageError{Op: "write", Err: err}
	}

	s.fileRecs++
	s.totalRecords++
	return nil
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Session:    s.session.String(),
		ActiveFile: s.path,
		Records:    s.totalRecords,
		Bytes:      s.totalBytes,
		Rotations:  s.rotations,
	}
}

// Session returns the capture session identifier.
func (s *Store) Session() string { return s.session.String() }

// Close closes the active file. Further Store calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return &StorageError{Op: "close", Err: err}
	}
	return nil
}

// rotate closes the active file and opens the next one. Called with the
// lock held.
func (s *Store) rotate() error {
	closedPath, closedRecs, closedSize := s.path, s.fileRecs, s.size

	if err := s.file.Close(); err != nil {
		return &StorageError{Op: "rotate close", Err: err}
	}
	s.file = nil
	s.rotations++

	if err := s.openNext(); err != nil {
		return err
	}

	if s.events != nil {
		ev := model.RotationEvent{
			Path:    closedPath,
			Seq:     s.seq - 1,
			Records: closedRecs,
			Bytes:   closedSize,
		}
		select {
		case s.events <- ev:
		default:
		}
	}
	return nil
}

// openNext opens a fresh rotation file and records it in the manifest.
// File names are sequence-prefixed so lexical order equals creation order.
func (s *Store) openNext() error {
	s.seq++
	name := fmt.Sprintf("logcat_%06d_%s.jsonl", s.seq, time.Now().Format("20060102T150405"))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return &StorageError{Op: "open rotation file", Err: err}
	}

	s.file = f
	s.path = path
	s.size = 0
	s.fileRecs = 0

	s.manifest.Files = append(s.manifest.Files, name)
	if err := s.writeManifest(); err != nil {
		// The manifest is an index, not the data path; a failure here
		// must not take down a rotation that already succeeded.
		log.Printf("storage: %v", err)
	}
	return nil
}

// writeManifest persists the manifest atomically via a temp-file rename.
func (s *Store) writeManifest() error {
	raw, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode manifest", Err: err}
	}

	path := filepath.Join(s.dir, ManifestName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return &StorageError{Op: "write manifest", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &StorageError{Op: "write manifest", Err: err}
	}
	return nil
}
