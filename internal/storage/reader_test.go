package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/admbahm/devinsight/internal/model"
)

func TestCompressFilePreservesRecords(t *testing.T) {
	dir := t.TempDir()
	size := recordSize(t, record(0))

	s, err := New(dir, 2*size, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if err := s.Store(record(i)); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	files, err := ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(files))
	}

	// Compact the first (closed) file.
	if err := CompressFile(files[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(files[0]); !os.IsNotExist(err) {
		t.Fatalf("original must be removed after compaction, stat err=%v", err)
	}

	files, err = ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(files[0], CompressedExt) {
		t.Fatalf("expected compressed first file, got %v", files)
	}

	// Reading the directory still yields all records in order.
	var msgs []string
	r := NewReader()
	if err := r.WalkDir(dir, func(rec model.StoredLog) error {
		msgs = append(msgs, rec.Message)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(msgs))
	}
	for i, m := range msgs {
		if want := fmt.Sprintf("message %04d", i); m != want {
			t.Fatalf("record %d: got %q, want %q", i, m, want)
		}
	}
}

func TestListDirPrefersUncompressedOnConflict(t *testing.T) {
	dir := t.TempDir()
	size := recordSize(t, record(0))

	s, err := New(dir, size, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Store(record(i)); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	files, err := ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	first := files[0]

	// Simulate an interrupted compaction: both forms of the same file.
	raw, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	if err := CompressFile(first); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(first, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	files, err = ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("conflicting pair must count once, got %v", files)
	}
	if filepath.Base(files[0]) != filepath.Base(first) {
		t.Errorf("expected uncompressed %q to win, got %q", first, files[0])
	}
}

func TestReadFileFromSkipsConsumedPrefix(t *testing.T) {
	dir := t.TempDir()
	size := recordSize(t, record(0))

	s, err := New(dir, 1<<20, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Store(record(i)); err != nil {
			t.Fatal(err)
		}
	}
	s.Close()

	files, err := ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	collect := func(path string, offset int64) []string {
		t.Helper()
		var msgs []string
		r := NewReader()
		if err := r.ReadFileFrom(path, offset, func(rec model.StoredLog) error {
			msgs = append(msgs, rec.Message)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		return msgs
	}

	// Skipping one record's bytes in the plain file starts at record 1.
	got := collect(files[0], size)
	if len(got) != 2 || got[0] != "message 0001" {
		t.Fatalf("plain offset read: got %v", got)
	}

	// The same offset addresses the same position after compaction.
	if err := CompressFile(files[0]); err != nil {
		t.Fatal(err)
	}
	files, err = ListDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	got = collect(files[0], size)
	if len(got) != 2 || got[0] != "message 0001" {
		t.Fatalf("compressed offset read: got %v", got)
	}

	// An offset at end-of-data yields nothing without erroring.
	if got := collect(files[0], 3*size); len(got) != 0 {
		t.Fatalf("end offset must yield no records, got %v", got)
	}
}

func TestReaderDecodeFields(t *testing.T) {
	dir := t.TempDir()

	s, err := New(dir, 1<<20, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := record(7)
	want.DeviceID = "emulator-5554"
	if err := s.Store(want); err != nil {
		t.Fatal(err)
	}
	s.Close()

	var got []model.StoredLog
	r := NewReader()
	if err := r.WalkDir(dir, func(rec model.StoredLog) error {
		got = append(got, rec)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}

	rec := got[0]
	if rec.Level != want.Level || rec.Tag != want.Tag || rec.Message != want.Message {
		t.Errorf("decoded %+v, want %+v", rec, want)
	}
	if rec.DeviceID != want.DeviceID {
		t.Errorf("device_id %q, want %q", rec.DeviceID, want.DeviceID)
	}
	if !rec.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp %v, want %v", rec.Timestamp, want.Timestamp)
	}
}
