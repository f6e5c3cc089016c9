package storage

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/valyala/fastjson"

	"github.com/admbahm/devinsight/internal/model"
)

// ListDir returns the rotation files in a capture directory in creation
// order. Compressed and uncompressed files mix freely; when both forms of
// the same file exist (compaction interrupted mid-way) the uncompressed
// one wins, since it is the one guaranteed complete.
func ListDir(dir string) ([]string, error) {
	pattern := filepath.Join(dir, "logcat_*.jsonl{,"+CompressedExt+"}")
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}

	byBase := make(map[string]string, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), CompressedExt)
		if prev, ok := byBase[base]; ok && !strings.HasSuffix(prev, CompressedExt) {
			continue
		}
		byBase[base] = m
	}

	files := make([]string, 0, len(byBase))
	for _, m := range byBase {
		files = append(files, m)
	}
	// The seq prefix in the base name makes lexical order creation order.
	sort.Slice(files, func(i, j int) bool {
		return filepath.Base(files[i]) < filepath.Base(files[j])
	})
	return files, nil
}

// Reader iterates StoredLog records out of rotation files.
type Reader struct {
	parser fastjson.Parser
}

// NewReader returns a Reader. A Reader is single-goroutine; create one per
// consumer.
func NewReader() *Reader { return &Reader{} }

// WalkDir visits every record in a capture directory in ingestion order.
// Returning an error from fn stops the walk.
func (r *Reader) WalkDir(dir string, fn func(model.StoredLog) error) error {
	files, err := ListDir(dir)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := r.ReadFile(f, fn); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile visits every record in one rotation file, transparently
// decompressing .zst files.
func (r *Reader) ReadFile(path string, fn func(model.StoredLog) error) error {
	return r.ReadFileFrom(path, 0, fn)
}

// ReadFileFrom visits the records starting at a byte offset into the
// uncompressed data. Compression preserves the byte stream, so an offset
// recorded against the plain file addresses the same position in its
// compacted form. The offset must sit on a record boundary.
func (r *Reader) ReadFileFrom(path string, offset int64, fn func(model.StoredLog) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var src io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer dec.Close()
		src = dec
	}

	if offset > 0 {
		if _, err := io.CopyN(io.Discard, src, offset); err != nil {
			return fmt.Errorf("%s: skip to offset %d: %w", path, offset, err)
		}
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		rec, err := r.Decode(scanner.Bytes())
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Decode parses one JSON-lines record without a full reflective unmarshal.
func (r *Reader) Decode(line []byte) (model.StoredLog, error) {
	v, err := r.parser.ParseBytes(line)
	if err != nil {
		return model.StoredLog{}, fmt.Errorf("decode record: %w", err)
	}

	rec := model.StoredLog{
		Level:    string(v.GetStringBytes("level")),
		Tag:      string(v.GetStringBytes("tag")),
		Message:  string(v.GetStringBytes("message")),
		DeviceID: string(v.GetStringBytes("device_id")),
	}
	if ts := v.GetStringBytes("timestamp"); len(ts) > 0 {
		t, err := time.Parse(time.RFC3339Nano, string(ts))
		if err != nil {
			return model.StoredLog{}, fmt.Errorf("decode timestamp: %w", err)
		}
		rec.Timestamp = t
	}
	return rec, nil
}

// ReadManifest loads the capture manifest from a directory, when present.
func ReadManifest(dir string) (session string, files []string, err error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return "", nil, err
	}

	var p fastjson.Parser
	v, err := p.ParseBytes(raw)
	if err != nil {
		return "", nil, fmt.Errorf("parse manifest: %w", err)
	}

	session = string(v.GetStringBytes("session"))
	for _, f := range v.GetArray("files") {
		files = append(files, string(f.GetStringBytes()))
	}
	return session, files, nil
}
